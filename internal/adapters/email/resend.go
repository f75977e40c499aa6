package email

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// MaxBatch is the largest batch the Resend API accepts per call.
const MaxBatch = 100

// ResendSender sends messages via the Resend API.
type ResendSender struct {
	client  *resend.Client
	from    string
	replyTo string
	log     *zap.SugaredLogger
}

// NewResendSender creates a sender with default from and reply-to addresses.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
// POST: Returns a ready-to-use sender
func NewResendSender(apiKey, from, replyTo string, log *zap.SugaredLogger) *ResendSender {
	return &ResendSender{
		client:  resend.NewClient(apiKey),
		from:    from,
		replyTo: replyTo,
		log:     log,
	}
}

func (s *ResendSender) params(req SendRequest) *resend.SendEmailRequest {
	p := &resend.SendEmailRequest{
		From:    req.From,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		ReplyTo: req.ReplyTo,
	}
	if p.From == "" {
		p.From = s.from
	}
	if p.ReplyTo == "" {
		p.ReplyTo = s.replyTo
	}
	return p
}

// Send sends a single message.
// PRE: req has at least one recipient and a subject
// POST: Message is queued for delivery; returns the Resend message id
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	sent, err := s.client.Emails.SendWithContext(ctx, s.params(req))
	if err != nil {
		s.log.Errorw("resend_send_failed", "error", err, "to", req.To, "subject", req.Subject)
		return SendResult{}, errors.Wrap(err, "resend send")
	}
	s.log.Infow("resend_sent", "message_id", sent.Id, "to", req.To)
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}

// SendBatch sends messages in chunks of MaxBatch.
// PRE: none
// POST: Results are in request order; on failure the results of earlier chunks are returned with the error
func (s *ResendSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	var results []SendResult
	for start := 0; start < len(reqs); start += MaxBatch {
		end := min(start+MaxBatch, len(reqs))
		chunk := make([]*resend.SendEmailRequest, 0, end-start)
		for _, req := range reqs[start:end] {
			chunk = append(chunk, s.params(req))
		}

		resp, err := s.client.Batch.SendWithContext(ctx, chunk)
		if err != nil {
			s.log.Errorw("resend_batch_failed", "error", err, "batch_size", len(chunk), "offset", start)
			return results, errors.Wrap(err, "resend batch send")
		}
		for _, item := range resp.Data {
			results = append(results, SendResult{MessageID: item.Id, SentAt: time.Now()})
		}
		s.log.Infow("resend_batch_sent", "count", len(chunk), "total_sent", len(results))
	}
	return results, nil
}
