package orchestrators

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	emailAdapter "vacademy/internal/adapters/email"
	"vacademy/internal/domain/campaign"
	"vacademy/internal/domain/customfield"
	"vacademy/internal/domain/template"
)

// SendCampaignEmailInput names the template and the campaign whose leads receive it.
type SendCampaignEmailInput struct {
	TemplateID string
	CampaignID string
	DryRun     bool // personalise without sending
}

// SendCampaignEmailResult counts what happened to the campaign's leads.
type SendCampaignEmailResult struct {
	Sent     int                `json:"sent"`
	Skipped  int                `json:"skipped"`
	Queued   int                `json:"queued,omitempty"` // deferred to the outbox after a send failure
	Previews []template.Message `json:"previews,omitempty"`
}

// SendCampaignEmailDeps holds dependencies for SendCampaignEmail.
type SendCampaignEmailDeps struct {
	TemplateStore    TemplateStoreForOrchestrator
	MappingStore     MappingStoreForOrchestrator
	CampaignStore    CampaignStoreForOrchestrator
	LeadStore        LeadStoreForOrchestrator
	CustomFieldStore CustomFieldStoreForOrchestrator
	EmailSender      emailAdapter.Sender
	PageSize         int // defaults to campaign.MaxPageSize

	// Outbox, when set, receives the messages of a failed batch for retry
	// instead of aborting the send.
	Outbox     OutboxStoreForOrchestrator
	GenerateID func() string
	Now        func() time.Time
}

// previewLimit bounds the messages a dry run returns.
const previewLimit = 5

// ExecuteSendCampaignEmail personalises an email template for every lead of
// a campaign and hands the messages to the sender one page at a time.
// PRE: the template is an email template of the campaign's institute
// POST: every lead with an email address was sent or queued one message; others are counted as skipped
func ExecuteSendCampaignEmail(ctx context.Context, input SendCampaignEmailInput, deps SendCampaignEmailDeps) (SendCampaignEmailResult, error) {
	t, err := deps.TemplateStore.GetByID(ctx, input.TemplateID)
	if err != nil {
		return SendCampaignEmailResult{}, err
	}
	if t.Channel != template.ChannelEmail {
		return SendCampaignEmailResult{}, template.ErrNotEmailChannel
	}
	c, err := deps.CampaignStore.GetByID(ctx, input.CampaignID)
	if err != nil {
		return SendCampaignEmailResult{}, err
	}
	if c.InstituteID != t.InstituteID {
		return SendCampaignEmailResult{}, errors.Wrap(campaign.ErrNotFound, "campaign belongs to another institute")
	}
	ms, err := deps.MappingStore.ListByTemplate(ctx, t.ID)
	if err != nil {
		return SendCampaignEmailResult{}, errors.Wrap(err, "list mappings")
	}
	fields, err := deps.CustomFieldStore.ListByInstitute(ctx, c.InstituteID)
	if err != nil {
		zap.S().Warnw("custom_field_registry_unavailable", "institute_id", c.InstituteID, "error", err)
	}
	reg := customfield.NewRegistry(fields)

	size := deps.PageSize
	if size <= 0 {
		size = campaign.MaxPageSize
	}
	q := campaign.LeadQuery{
		AudienceID:    c.AudienceID,
		Size:          size,
		SortBy:        campaign.SortSubmittedAt,
		SortDirection: campaign.SortAsc,
	}

	var res SendCampaignEmailResult
	for {
		page, err := deps.LeadStore.Search(ctx, q)
		if err != nil {
			return res, errors.Wrapf(err, "search leads page %d", q.Page)
		}

		reqs := make([]emailAdapter.SendRequest, 0, len(page.Content))
		for _, lead := range page.Content {
			msg := template.Personalize(t, ms, reg, lead)
			if strings.TrimSpace(msg.To) == "" {
				res.Skipped++
				continue
			}
			if input.DryRun {
				if len(res.Previews) < previewLimit {
					res.Previews = append(res.Previews, msg)
				}
				res.Sent++
				continue
			}
			reqs = append(reqs, emailAdapter.SendRequest{To: []string{msg.To}, Subject: msg.Subject, HTML: msg.HTML})
		}
		if len(reqs) > 0 {
			results, err := deps.EmailSender.SendBatch(ctx, reqs)
			res.Sent += len(results)
			if err != nil {
				if deps.Outbox == nil {
					return res, errors.Wrapf(err, "send page %d", q.Page)
				}
				ref := "template:" + t.ID + "/campaign:" + c.ID
				queued, qerr := enqueueEmails(ctx, deps.Outbox, deps.GenerateID, deps.Now(), ref, reqs[len(results):], err)
				res.Queued += queued
				if qerr != nil {
					return res, errors.Wrapf(qerr, "send page %d failed (%v), queue", q.Page, err)
				}
				zap.S().Warnw("campaign_email_queued", "template_id", t.ID, "campaign_id", c.ID,
					"page", q.Page, "queued", queued, "error", err)
			}
		}

		if page.Last || len(page.Content) == 0 {
			break
		}
		q.Page++
	}

	zap.S().Infow("campaign_email_sent", "template_id", t.ID, "campaign_id", c.ID,
		"sent", res.Sent, "skipped", res.Skipped, "queued", res.Queued, "dry_run", input.DryRun)
	return res, nil
}
