package notify

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/domain/chain"
	"github.com/x-xyz/keeper/domain/token"
	"github.com/x-xyz/keeper/service/tokeninfo"
)

// embedSender is the part of *discordgo.Session the notifier uses.
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
}

type discordNotifier struct {
	sender    embedSender
	channelId string
	registry  *chain.Registry
	tokens    tokeninfo.Service
}

func newDiscord(sender embedSender, cfg Config) *discordNotifier {
	return &discordNotifier{
		sender:    sender,
		channelId: cfg.DiscordChannelId,
		registry:  cfg.Registry,
		tokens:    cfg.Tokens,
	}
}

func (n *discordNotifier) AuctionSettled(c ctx.Ctx, a *auction.Auction, winner *auction.AggregatedBid, plan token.RoutePlan) error {
	msg := &discordgo.MessageEmbed{
		Title:       "Auction settled!",
		Description: string(a.IntentId),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Item", Value: fmt.Sprintf("%s #%s", a.NftContract, a.TokenId)},
			{Name: "Chain", Value: n.chainName(a.ChainId)},
			{Name: "Seller", Value: string(a.Seller)},
			{Name: "Winner", Value: string(winner.Bidder)},
			{Name: "Amount", Value: n.amount(c, winner.SourceChain, winner.Token, winner.TotalAmount)},
			{Name: "Paid on", Value: n.chainNames(winner.Chains)},
			{Name: "Route", Value: plan.Guidance()},
		},
	}
	return n.send(c, msg)
}

func (n *discordNotifier) RefundFailed(c ctx.Ctx, a *auction.Auction, refund auction.FailedRefund) error {
	msg := &discordgo.MessageEmbed{
		Title:       "Refund failed",
		Description: string(a.IntentId),
		Color:       0xe74c3c,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Bidder", Value: string(refund.Bidder)},
			{Name: "Chain", Value: n.chainName(refund.ChainId)},
			{Name: "Amount", Value: orDash(refund.Amount)},
			{Name: "Error", Value: orDash(truncate(refund.Error, 1024))},
		},
	}
	return n.send(c, msg)
}

func (n *discordNotifier) send(c ctx.Ctx, msg *discordgo.MessageEmbed) error {
	if _, err := n.sender.ChannelMessageSendEmbed(n.channelId, msg); err != nil {
		c.WithFields(log.Fields{"err": err, "title": msg.Title}).Warn("discord.ChannelMessageSendEmbed failed")
		return err
	}
	return nil
}

func (n *discordNotifier) chainName(id domain.ChainId) string {
	if n.registry != nil {
		if cfg, err := n.registry.Lookup(id); err == nil {
			return cfg.DisplayName()
		}
	}
	return fmt.Sprintf("%d", id)
}

func (n *discordNotifier) chainNames(ids []domain.ChainId) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, n.chainName(id))
	}
	return strings.Join(names, ", ")
}

// amount falls back to the raw value when the token cannot be resolved
func (n *discordNotifier) amount(c ctx.Ctx, chainId domain.ChainId, addr domain.Address, value *big.Int) string {
	if n.tokens == nil {
		return value.String()
	}
	info, err := n.tokens.Resolve(c, chainId, addr)
	if err != nil {
		return fmt.Sprintf("%s (%s)", value.String(), addr)
	}
	formatted, err := n.tokens.FormatAmount(c, chainId, addr, value)
	if err != nil {
		return value.String()
	}
	return fmt.Sprintf("%s %s", formatted.String(), info.Symbol)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// discord rejects empty field values
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
