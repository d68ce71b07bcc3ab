package synack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var claimedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestTask_Render(t *testing.T) {
	t.Run("should compose summary from payout, title, and codename", func(t *testing.T) {
		task := Task{
			TaskID:            "t1",
			Title:             "Fix XSS",
			Description:       "Reflected XSS in the search box",
			ListingCodename:   "SLEEPYPUPPY",
			TimeGiven:         time.Hour,
			ClaimedOn:         claimedAt,
			MaxCompletionTime: claimedAt.Add(time.Hour),
			PayoutAmount:      500,
			PayoutCurrency:    "USD",
		}

		draft := task.Render()

		assert.Equal(t, "500 - Fix XSS - SLEEPYPUPPY", draft.Summary)
		assert.Equal(t, claimedAt, draft.Start)
		assert.Equal(t, claimedAt.Add(time.Hour), draft.End)
		assert.Equal(t, "Reflected XSS in the search box", draft.Description)
	})

	t.Run("should keep fractional payout amounts readable", func(t *testing.T) {
		task := Task{TaskID: "t1", Title: "Recon", ListingCodename: "OWL", PayoutAmount: 12.5, ClaimedOn: claimedAt}

		draft := task.Render()

		assert.Equal(t, "12.5 - Recon - OWL", draft.Summary)
	})

	t.Run("should fall back to a one hour window when no deadline is known", func(t *testing.T) {
		task := Task{TaskID: "t1", Title: "Recon", ClaimedOn: claimedAt}

		draft := task.Render()

		assert.Equal(t, claimedAt.Add(time.Hour), draft.End)
	})

	t.Run("should sanitize free text before it reaches the calendar", func(t *testing.T) {
		task := Task{
			TaskID:          "t1",
			Title:           "SQLi on 10.0.0.7",
			Description:     "payload hits api.internal.acme.com",
			ListingCodename: "OWL",
			ClaimedOn:       claimedAt,
		}

		draft := task.Render()

		assert.Equal(t, "0 - SQLi on *.*.*.* - OWL", draft.Summary)
		assert.Equal(t, "payload hits [domain]", draft.Description)
	})
}

func TestTarget_Render(t *testing.T) {
	target := Target{
		Slug:                     "g1",
		Category:                 "Web Application",
		Codename:                 "SLEEPYPUPPY",
		Start:                    claimedAt,
		Discovery:                true,
		VulnAccepted:             3,
		DynamicPaymentPercentage: "12.5",
	}

	draft := target.Render()

	assert.Equal(t, "SLEEPYPUPPY", draft.Summary)
	assert.Equal(t, claimedAt, draft.Start)
	assert.Equal(t, claimedAt, draft.End)
	assert.Equal(t, "Category: Web Application, Discovery: true, Vuln Accepted: 3, Dynamic Payment Percentage: 12.5", draft.Description)
}

func TestPatchVerification_Render(t *testing.T) {
	t.Run("should derive a deterministic window ending at expiry", func(t *testing.T) {
		verification := PatchVerification{
			PatchID:   "p1",
			Message:   "Please verify the fix",
			Expires:   claimedAt,
			VulnTitle: "Stored XSS",
		}

		draft := verification.Render()

		assert.Equal(t, "Patch Verification for Stored XSS", draft.Summary)
		assert.Equal(t, claimedAt.Add(-time.Hour), draft.Start)
		assert.Equal(t, claimedAt, draft.End)
		assert.True(t, draft.Equal(verification.Render()))
	})

	t.Run("should sanitize the vulnerability title and message", func(t *testing.T) {
		verification := PatchVerification{
			PatchID:   "p1",
			Message:   "host 172.16.4.2 patched",
			Expires:   claimedAt,
			VulnTitle: "SSRF against metadata.google.internal",
		}

		draft := verification.Render()

		assert.Equal(t, "Patch Verification for SSRF against [domain]", draft.Summary)
		assert.Equal(t, "host *.*.*.* patched", draft.Description)
	})
}
