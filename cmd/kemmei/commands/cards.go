// ABOUTME: Card commands for listing and bulk-importing quiz cards
// ABOUTME: Import accepts a JSON array of cards or an export document
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thumbcoded/kemmei-app-sub000/internal/models"
)

// NewCardsCmd creates the cards command group
func NewCardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List and import quiz cards",
	}

	cmd.AddCommand(newCardsListCmd())
	cmd.AddCommand(newCardsImportCmd())

	return cmd
}

func newCardsListCmd() *cobra.Command {
	var (
		cert, domain, subdomain, difficulty string
		limit                               int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards, optionally filtered",
		Long: `List quiz cards. Filters are ANDed; difficulty ignores case.

Examples:
  kemmei cards list
  kemmei cards list --cert 220-1101 --difficulty hard
  kemmei cards list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("limit") {
				if err := validatePositiveInt(limit, "limit"); err != nil {
					return err
				}
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			cards, err := a.api.GetCards(cmd.Context(), map[string]string{
				models.MetaCertID:      cert,
				models.MetaDomainID:    domain,
				models.MetaSubdomainID: subdomain,
				models.MetaDifficulty:  difficulty,
			})
			if err != nil {
				return fmt.Errorf("listing cards: %w", err)
			}
			if limit > 0 && len(cards) > limit {
				cards = cards[:limit]
			}

			out := cmd.OutOrStdout()
			if wantJSON() {
				return printJSON(out, cards)
			}
			if len(cards) == 0 {
				if !quiet {
					fmt.Fprintln(out, "No cards found")
				}
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\tCERT\tDOMAIN\tDIFFICULTY\tTITLE\n")
			fmt.Fprintf(w, "--\t----\t------\t----------\t-----\n")
			for i := range cards {
				c := &cards[i]
				domainID, _ := c.MetaString(models.MetaDomainID)
				diff, _ := c.MetaString(models.MetaDifficulty)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					truncate(c.ID, 12),
					joinOrDash(c.CertIDs()),
					orDash(domainID),
					orDash(diff),
					truncate(c.Title, 50))
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("writing card table: %w", err)
			}

			if !quiet {
				fmt.Fprintf(out, "\nTotal: %d card(s)\n", len(cards))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cert, "cert", "", "Certification ID")
	cmd.Flags().StringVar(&domain, "domain", "", "Domain ID")
	cmd.Flags().StringVar(&subdomain, "subdomain", "", "Subdomain ID")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "Difficulty")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many cards")

	return cmd
}

func newCardsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import cards from a JSON file",
		Long: `Import cards from a JSON file holding either an array of cards or an
object with a "cards" array (the output of kemmei export).

Cards without an id get a generated one; existing ids are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			cards, err := decodeCards(data)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.api.ImportCards(cmd.Context(), cards)
			if err != nil {
				return fmt.Errorf("imported %d card(s) before failing: %w", res.Count, err)
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d card(s)\n", res.Count)
			return nil
		},
	}
}

// decodeCards accepts [...] or {"cards": [...]}
func decodeCards(data []byte) ([]models.Card, error) {
	data = bytes.TrimSpace(data)
	var cards []models.Card
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &cards); err != nil {
			return nil, err
		}
		return cards, nil
	}

	var doc struct {
		Cards []models.Card `json:"cards"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Cards == nil {
		return nil, fmt.Errorf("no cards array found")
	}
	return doc.Cards, nil
}
