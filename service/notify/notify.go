package notify

import (
	"github.com/bwmarrin/discordgo"
	"golang.org/x/xerrors"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/domain/chain"
	"github.com/x-xyz/keeper/domain/token"
	"github.com/x-xyz/keeper/service/tokeninfo"
)

type Config struct {
	DiscordBotKey    string
	DiscordChannelId string
	Registry         *chain.Registry
	Tokens           tokeninfo.Service
}

// New returns a discord notifier, or a noop one when no bot key is configured.
func New(cfg Config) (auction.Notifier, error) {
	if cfg.DiscordBotKey == "" {
		return Noop(), nil
	}
	if cfg.DiscordChannelId == "" {
		return nil, xerrors.Errorf("%w: discord channel id is required with a bot key", domain.ErrInvalidConfig)
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotKey)
	if err != nil {
		return nil, err
	}
	return newDiscord(session, cfg), nil
}

type noop struct{}

func Noop() auction.Notifier {
	return noop{}
}

func (noop) AuctionSettled(ctx.Ctx, *auction.Auction, *auction.AggregatedBid, token.RoutePlan) error {
	return nil
}

func (noop) RefundFailed(ctx.Ctx, *auction.Auction, auction.FailedRefund) error {
	return nil
}
