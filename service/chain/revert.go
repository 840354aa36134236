package chain

import (
	"strings"

	"golang.org/x/xerrors"

	"github.com/x-xyz/keeper/domain"
)

// RevertPatterns map revert messages onto outcomes the keeper handles specially.
// Matching is a case-insensitive substring test.
type RevertPatterns struct {
	Premature   []string `mapstructure:"premature"`
	AlreadyDone []string `mapstructure:"alreadyDone"`
}

var defaultRevertPatterns = RevertPatterns{
	Premature: []string{
		"auction not ended",
		"auction has not ended",
		"deadline not reached",
		"not yet ended",
		"too early",
	},
	AlreadyDone: []string{
		"already finalized",
		"already released",
		"already refunded",
		"already settled",
		"already claimed",
		"nothing to refund",
		"no bid to refund",
	},
}

func (p RevertPatterns) withDefaults() RevertPatterns {
	if len(p.Premature) == 0 {
		p.Premature = defaultRevertPatterns.Premature
	}
	if len(p.AlreadyDone) == 0 {
		p.AlreadyDone = defaultRevertPatterns.AlreadyDone
	}
	return p
}

// Classify wraps err with domain.ErrPrematureFinalize or domain.ErrAlreadyDone when its
// message matches; other errors come back unchanged.
func (p RevertPatterns) Classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if matchAny(msg, p.Premature) {
		return xerrors.Errorf("%w: %v", domain.ErrPrematureFinalize, err)
	}
	if matchAny(msg, p.AlreadyDone) {
		return xerrors.Errorf("%w: %v", domain.ErrAlreadyDone, err)
	}
	return err
}

func matchAny(msg string, patterns []string) bool {
	for _, s := range patterns {
		if s != "" && strings.Contains(msg, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
