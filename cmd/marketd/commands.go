package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/arkade-os/marketd/internal/core/application"
	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/urfave/cli/v2"
)

const (
	statusFlagName      = "status"
	payloadFileFlagName = "payload-file"
	relayerFlagName     = "relayer"
	ownerFlagName       = "owner"
	accountFlagName     = "account"
	amountFlagName      = "amount"
)

var (
	statusFlag = &cli.StringSliceFlag{
		Name: statusFlagName,
		Usage: "filter auctions by status " +
			"(active, ended-sold-pay-pending, ended-unsold, completed)",
	}
	payloadFileFlag = &cli.StringFlag{
		Name:     payloadFileFlagName,
		Usage:    "path to the JSON payload relayed from the source chain",
		Required: true,
	}
	relayerFlag = &cli.StringFlag{
		Name:     relayerFlagName,
		Usage:    "relayer wallet submitting the attestation (base58)",
		Required: true,
	}
	ownerFlag = &cli.StringFlag{
		Name:     ownerFlagName,
		Usage:    "wallet owning the token account (base58)",
		Required: true,
	}
	accountFlag = &cli.StringFlag{
		Name:     accountFlagName,
		Usage:    "settlement currency token account (base58)",
		Required: true,
	}
	amountFlag = &cli.Uint64Flag{
		Name:     amountFlagName,
		Usage:    "amount of settlement currency in base units",
		Required: true,
	}
)

var (
	assetsCmd = &cli.Command{
		Name:   "assets",
		Usage:  "List registered assets",
		Action: assetsAction,
	}
	auctionsCmd = &cli.Command{
		Name:   "auctions",
		Usage:  "List auctions",
		Flags:  []cli.Flag{statusFlag},
		Action: auctionsAction,
	}
	attestationsCmd = &cli.Command{
		Name:   "attestations",
		Usage:  "List recorded cross-chain attestations",
		Action: attestationsAction,
	}
	attestCmd = &cli.Command{
		Name:   "attest",
		Usage:  "Record a cross-chain balance attestation relayed from an EVM chain",
		Flags:  []cli.Flag{payloadFileFlag, relayerFlag},
		Action: attestAction,
	}
	openAccountCmd = &cli.Command{
		Name:   "open-account",
		Usage:  "Open a settlement currency token account",
		Flags:  []cli.Flag{ownerFlag, accountFlag},
		Action: openAccountAction,
	}
	creditCmd = &cli.Command{
		Name:   "credit",
		Usage:  "Mint settlement currency into a token account as the marketplace admin",
		Flags:  []cli.Flag{accountFlag, amountFlag},
		Action: creditAction,
	}
)

var auctionStatuses = map[string]domain.AuctionStatus{
	"active":                 domain.AuctionActive,
	"ended-sold-pay-pending": domain.AuctionEndedSoldPayPending,
	"ended-unsold":           domain.AuctionEndedUnsold,
	"completed":              domain.AuctionCompleted,
}

func assetsAction(c *cli.Context) error {
	return withService(c, func(svc application.Service) error {
		assets, err := svc.Registry().ListAssets(c.Context)
		if err != nil {
			return err
		}
		return printJSON(assets)
	})
}

func auctionsAction(c *cli.Context) error {
	statuses := make([]domain.AuctionStatus, 0)
	for _, s := range c.StringSlice(statusFlagName) {
		status, ok := auctionStatuses[strings.ToLower(s)]
		if !ok {
			return fmt.Errorf("unknown auction status %q", s)
		}
		statuses = append(statuses, status)
	}

	return withService(c, func(svc application.Service) error {
		auctions, err := svc.Auctions().ListAuctions(c.Context, statuses...)
		if err != nil {
			return err
		}
		return printJSON(auctions)
	})
}

func attestationsAction(c *cli.Context) error {
	return withService(c, func(svc application.Service) error {
		attestations, err := svc.Attestations().ListAttestations(c.Context)
		if err != nil {
			return err
		}
		return printJSON(attestations)
	})
}

func attestAction(c *cli.Context) error {
	relayer, err := domain.ParseAddress(c.String(relayerFlagName))
	if err != nil {
		return fmt.Errorf("invalid relayer: %s", err)
	}
	buf, err := os.ReadFile(c.String(payloadFileFlagName))
	if err != nil {
		return fmt.Errorf("failed to read payload: %s", err)
	}
	payload, err := application.DecodeEVMPayload(buf)
	if err != nil {
		return err
	}

	return withService(c, func(svc application.Service) error {
		attestation, err := svc.Attestations().SubmitAttestation(c.Context, relayer, payload)
		if err != nil {
			return err
		}
		return printJSON(attestation)
	})
}

func openAccountAction(c *cli.Context) error {
	owner, err := domain.ParseAddress(c.String(ownerFlagName))
	if err != nil {
		return fmt.Errorf("invalid owner: %s", err)
	}
	address, err := domain.ParseAddress(c.String(accountFlagName))
	if err != nil {
		return fmt.Errorf("invalid account: %s", err)
	}

	return withService(c, func(svc application.Service) error {
		account, err := svc.Accounts().Open(c.Context, owner, address)
		if err != nil {
			return err
		}
		return printJSON(account)
	})
}

func creditAction(c *cli.Context) error {
	address, err := domain.ParseAddress(c.String(accountFlagName))
	if err != nil {
		return fmt.Errorf("invalid account: %s", err)
	}

	cfg, svc, err := initService(c)
	if err != nil {
		return err
	}
	defer svc.Stop()

	account, err := svc.Accounts().Credit(
		c.Context, cfg.Admin, address, c.Uint64(amountFlagName),
	)
	if err != nil {
		return err
	}
	return printJSON(account)
}

// withService runs fn against the marketplace records without starting the
// background sweeper.
func withService(c *cli.Context, fn func(svc application.Service) error) error {
	_, svc, err := initService(c)
	if err != nil {
		return err
	}
	defer svc.Stop()

	return fn(svc)
}

func printJSON(v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
