package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/keeper/domain"
)

const intentA1 = "0x00000000000000000000000000000000000000000000000000000000000000a1"

type ValidatorTestSuite struct {
	suite.Suite
}

func TestValidatorTestSuite(t *testing.T) {
	suite.Run(t, new(ValidatorTestSuite))
}

func (s *ValidatorTestSuite) TestIsValidIntentId() {
	tests := []struct {
		id    string
		valid bool
	}{
		{intentA1, true},
		{"0x00000000000000000000000000000000000000000000000000000000000000A1", true},
		{"0xa1", false},
		{intentA1[2:], false},
		{intentA1[:64] + "zz", false},
	}
	for _, tt := range tests {
		s.Equal(tt.valid, IsValidIntentId(tt.id), tt.id)
	}
}

func (s *ValidatorTestSuite) TestStructTags() {
	type query struct {
		Intent string `validate:"required,intent_id"`
		Seller string `validate:"omitempty,eth_addr"`
	}
	v := New()
	s.NoError(v.Struct(query{Intent: intentA1}))
	s.Error(v.Struct(query{Intent: "0x01"}))
	s.Error(v.Struct(query{Intent: intentA1, Seller: "not-an-address"}))
}

func (s *ValidatorTestSuite) TestEchoValidatorWrapsBadParam() {
	type body struct {
		Intent string `validate:"intent_id"`
	}
	cv := NewCustomValidator(New())
	s.NoError(cv.Validate(&body{Intent: intentA1}))

	err := cv.Validate(&body{Intent: "0x01"})
	s.True(errors.Is(err, domain.ErrBadParamInput))
}
