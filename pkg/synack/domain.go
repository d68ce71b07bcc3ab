package synack

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aringo/synacksync/pkg/sync"
)

// Task is a claimed mission with a completion deadline.
type Task struct {
	TaskID            string
	Title             string
	Description       string
	ListingCodename   string
	TimeGiven         time.Duration
	ClaimedOn         time.Time
	MaxCompletionTime time.Time
	PayoutAmount      float64
	PayoutCurrency    string
}

func (t Task) ID() string            { return t.TaskID }
func (t Task) Kind() sync.EntityKind { return sync.KindTask }

func (t Task) Render() sync.EventDraft {
	end := t.MaxCompletionTime
	if end.IsZero() {
		end = t.ClaimedOn.Add(time.Hour)
	}
	return sync.EventDraft{
		Summary:     sync.Sanitize(fmt.Sprintf("%s - %s - %s", formatAmount(t.PayoutAmount), t.Title, t.ListingCodename)),
		Description: sync.Sanitize(t.Description),
		Start:       t.ClaimedOn,
		End:         end,
	}
}

// Target is an upcoming engagement listing.
type Target struct {
	Slug                     string
	Category                 string
	Codename                 string
	AveragePayout            float64
	IsActive                 bool
	Start                    time.Time
	Discovery                bool
	VulnAccepted             int
	DynamicPaymentPercentage string
}

func (t Target) ID() string            { return t.Slug }
func (t Target) Kind() sync.EntityKind { return sync.KindTarget }

func (t Target) Render() sync.EventDraft {
	description := fmt.Sprintf("Category: %s, Discovery: %t, Vuln Accepted: %d, Dynamic Payment Percentage: %s",
		t.Category, t.Discovery, t.VulnAccepted, t.DynamicPaymentPercentage)
	return sync.EventDraft{
		Summary:     sync.Sanitize(t.Codename),
		Description: sync.Sanitize(description),
		Start:       t.Start,
		End:         t.Start,
	}
}

// PatchVerification is a fix awaiting re-test before its expiry.
type PatchVerification struct {
	PatchID   string
	Message   string
	Expires   time.Time
	VulnID    string
	VulnTitle string
}

func (p PatchVerification) ID() string            { return p.PatchID }
func (p PatchVerification) Kind() sync.EntityKind { return sync.KindPatchVerification }

func (p PatchVerification) Render() sync.EventDraft {
	return sync.EventDraft{
		Summary:     sync.Sanitize("Patch Verification for " + p.VulnTitle),
		Description: sync.Sanitize(p.Message),
		Start:       p.Expires.Add(-time.Hour),
		End:         p.Expires,
	}
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
