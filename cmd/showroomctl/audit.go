package main

import (
	"database/sql"
	"fmt"
	"io"
	"text/tabwriter"

	"car-showroom/internal/domain"
	"car-showroom/internal/phonemask"
	"car-showroom/internal/repository"

	"github.com/spf13/cobra"
)

type phoneClass string

const (
	phoneMasked  phoneClass = "masked"
	phoneLegacy  phoneClass = "legacy"
	phoneMissing phoneClass = "missing"
	phoneInvalid phoneClass = "invalid"
)

// auditPhonesCmd reports listings whose contact number would fail the
// current form validation
var auditPhonesCmd = &cobra.Command{
	Use:   "audit-phones",
	Short: "Report listings with unmasked or invalid WhatsApp numbers",
	Long: `Classify the WhatsApp number of every stored listing.

Numbers saved by older clients as bare digits are reported as legacy. They
still work as contact links but will be rejected the next time the listing
is edited until they are re-entered through the mask.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *sql.DB) error {
			docs, err := repository.NewListingRepository(db).List(cmd.Context(), repository.ListingQuery{})
			if err != nil {
				return err
			}
			return writePhoneAudit(cmd.OutOrStdout(), docs)
		})
	},
}

func classifyPhone(p *string) phoneClass {
	switch {
	case p == nil || *p == "":
		return phoneMissing
	case phonemask.ValidWhatsApp(*p):
		return phoneMasked
	case phonemask.ValidLegacyDigits(*p):
		return phoneLegacy
	default:
		return phoneInvalid
	}
}

// writePhoneAudit lists every listing that is not masked, then a summary.
func writePhoneAudit(w io.Writer, docs []*domain.ListingDocument) error {
	counts := map[phoneClass]int{}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tWHATSAPP\tCLASS")
	for _, doc := range docs {
		class := classifyPhone(doc.WhatsApp)
		counts[class]++
		if class == phoneMasked {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", doc.ID, deref(doc.Name), deref(doc.WhatsApp), class)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d listings: %d masked, %d legacy, %d missing, %d invalid\n",
		len(docs), counts[phoneMasked], counts[phoneLegacy], counts[phoneMissing], counts[phoneInvalid])
	return err
}

func deref(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}
