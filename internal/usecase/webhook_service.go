package usecase

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	customErr "github.com/Likith-Yadav/PayCoreX/internal/domain/errors"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/Likith-Yadav/PayCoreX/internal/infrastructure/metrics"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Delivery request headers.
const (
	HeaderSignature  = "X-Webhook-Signature"
	HeaderEvent      = "X-Webhook-Event"
	HeaderDeliveryID = "X-Webhook-Delivery"
)

const (
	endpointSecretLength = 64
	defaultDeliveryLimit = 50
)

// WebhookOptions tunes delivery.
type WebhookOptions struct {
	Timeout       time.Duration
	MaxRetries    int
	SweepBatch    int
	Workers       int
	RatePerSecond float64
}

func (o *WebhookOptions) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.SweepBatch <= 0 {
		o.SweepBatch = 100
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 20
	}
}

// WebhookService signs and delivers merchant events and retries failed deliveries
// with exponential backoff.
type WebhookService struct {
	repo      domainRepo.WebhookRepository
	client    *http.Client
	opts      WebhookOptions
	lease     time.Duration
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
	newSecret func() (string, error)
}

// NewWebhookService creates a new webhook service. A nil client gets one with the
// configured timeout.
func NewWebhookService(
	repo domainRepo.WebhookRepository,
	client *http.Client,
	opts WebhookOptions,
	m *metrics.Metrics,
	logger *zap.Logger,
) *WebhookService {
	opts.setDefaults()
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &WebhookService{
		repo:      repo,
		client:    client,
		opts:      opts,
		lease:     opts.Timeout + 30*time.Second,
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Workers),
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		newSecret: func() (string, error) { return gonanoid.New(endpointSecretLength) },
	}
}

// CanonicalPayload encodes {"event","data"} with sorted keys and no whitespace.
// The returned bytes are both the signed message and the request body.
func CanonicalPayload(eventType string, data map[string]interface{}) ([]byte, error) {
	// encoding/json writes map keys in sorted order at every level
	return json.Marshal(map[string]interface{}{
		"event": eventType,
		"data":  data,
	})
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// backoff is 2^retryCount minutes.
func backoff(retryCount int) time.Duration {
	return time.Duration(math.Pow(2, float64(retryCount))) * time.Minute
}

// CreateEndpoint registers a merchant URL and returns its secret once.
func (s *WebhookService) CreateEndpoint(ctx context.Context, merchantID string, req dto.CreateEndpointRequest) (*dto.EndpointCreated, error) {
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, customErr.NewValidationError("url must be an absolute http or https URL")
	}

	secret, err := s.newSecret()
	if err != nil {
		return nil, customErr.NewInternalError("failed to generate endpoint secret", err)
	}

	now := s.now()
	endpoint := &model.WebhookEndpoint{
		ID:         uuid.New(),
		MerchantID: merchantID,
		URL:        u.String(),
		Secret:     secret,
		IsActive:   true,
		Events:     req.Events,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateEndpoint(ctx, endpoint); err != nil {
		return nil, customErr.NewInternalError("failed to create webhook endpoint", err)
	}

	s.logger.Info("Webhook endpoint created",
		zap.String("endpoint_id", endpoint.ID.String()),
		zap.String("merchant_id", merchantID),
		zap.String("url", endpoint.URL))
	return &dto.EndpointCreated{Endpoint: endpoint, Secret: secret}, nil
}

func (s *WebhookService) ListEndpoints(ctx context.Context, merchantID string) ([]*model.WebhookEndpoint, error) {
	endpoints, err := s.repo.ListEndpoints(ctx, merchantID, false)
	if err != nil {
		return nil, customErr.NewInternalError("failed to list webhook endpoints", err)
	}
	return endpoints, nil
}

func (s *WebhookService) DeactivateEndpoint(ctx context.Context, merchantID string, id uuid.UUID) error {
	ok, err := s.repo.DeactivateEndpoint(ctx, merchantID, id)
	if err != nil {
		return customErr.NewInternalError("failed to deactivate webhook endpoint", err)
	}
	if !ok {
		return customErr.NewNotFoundError("webhook endpoint")
	}
	return nil
}

// ListDeliveries returns a merchant's deliveries, newest first.
func (s *WebhookService) ListDeliveries(ctx context.Context, merchantID string, q dto.ListDeliveriesQuery) ([]*model.WebhookDelivery, error) {
	filter := domainRepo.DeliveryFilter{EventType: q.EventType, Limit: q.Limit}
	if filter.Limit <= 0 {
		filter.Limit = defaultDeliveryLimit
	}
	if q.Status != "" {
		status := model.DeliveryStatus(q.Status)
		filter.Status = &status
	}
	deliveries, err := s.repo.ListDeliveries(ctx, merchantID, filter)
	if err != nil {
		return nil, customErr.NewInternalError("failed to list webhook deliveries", err)
	}
	return deliveries, nil
}

// GetDelivery returns one of the merchant's deliveries.
func (s *WebhookService) GetDelivery(ctx context.Context, merchantID string, id uuid.UUID) (*model.WebhookDelivery, error) {
	delivery, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		if errors.Is(err, domainRepo.ErrNotFound) {
			return nil, customErr.NewNotFoundError("webhook delivery")
		}
		return nil, customErr.NewInternalError("failed to load webhook delivery", err)
	}
	if delivery.MerchantID != merchantID {
		return nil, customErr.NewNotFoundError("webhook delivery")
	}
	return delivery, nil
}

// Enqueue records one delivery per active endpoint subscribed to eventType and makes
// the first attempt for each before returning. First attempts run in parallel, so the
// caller waits at most about one client timeout. A merchant with no endpoints gets
// nothing. Attempt failures are recorded on the delivery, not returned. If recording
// a delivery fails, the ones already recorded are still attempted.
func (s *WebhookService) Enqueue(ctx context.Context, merchantID, eventType string, data map[string]interface{}) ([]*model.WebhookDelivery, error) {
	endpoints, err := s.repo.ListEndpoints(ctx, merchantID, true)
	if err != nil {
		return nil, customErr.NewInternalError("failed to list webhook endpoints", err)
	}

	body, err := CanonicalPayload(eventType, data)
	if err != nil {
		return nil, customErr.NewInternalError("failed to encode webhook payload", err)
	}

	var (
		deliveries []*model.WebhookDelivery
		recordErr  error
	)
	for _, endpoint := range endpoints {
		if !endpoint.Subscribes(eventType) {
			continue
		}
		now := s.now()
		delivery := &model.WebhookDelivery{
			ID:         uuid.New(),
			EndpointID: endpoint.ID,
			MerchantID: merchantID,
			EventType:  eventType,
			Payload:    body,
			Signature:  Sign(endpoint.Secret, body),
			Status:     model.DeliveryStatusPending,
			MaxRetries: s.opts.MaxRetries,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.CreateDelivery(ctx, delivery); err != nil {
			recordErr = customErr.NewInternalError("failed to record webhook delivery", err)
			break
		}
		delivery.Endpoint = endpoint
		deliveries = append(deliveries, delivery)
	}

	// the first attempt must not die with the caller's request
	attemptCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	for _, d := range deliveries {
		d := d
		g.Go(func() error {
			s.attempt(attemptCtx, d)
			return nil
		})
	}
	_ = g.Wait()

	return deliveries, recordErr
}

// Retry makes a manual attempt. A delivery that was already sent is not re-sent.
func (s *WebhookService) Retry(ctx context.Context, merchantID string, id uuid.UUID) (*model.WebhookDelivery, error) {
	delivery, err := s.GetDelivery(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if delivery.Status == model.DeliveryStatusSent {
		return nil, customErr.ErrAlreadyDelivered
	}

	now := s.now()
	claimed, err := s.repo.Claim(ctx, id, now, now.Add(s.lease))
	if err != nil {
		return nil, customErr.NewInternalError("failed to claim webhook delivery", err)
	}

	delivery, err = s.GetDelivery(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if delivery.Status == model.DeliveryStatusSent {
		return nil, customErr.ErrAlreadyDelivered
	}
	if !claimed {
		return nil, customErr.NewInvalidStateError("delivery attempt already in progress")
	}

	s.attempt(context.WithoutCancel(ctx), delivery)
	return delivery, nil
}

// RetryDue attempts every due delivery once and returns how many were attempted.
// Each delivery is claimed before its attempt so concurrent sweeps never double-send.
func (s *WebhookService) RetryDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.repo.ListDue(ctx, now, s.opts.SweepBatch)
	if err != nil {
		return 0, customErr.NewInternalError("failed to list due webhook deliveries", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	var attempted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, d := range due {
		id := d.ID
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}

			claimedAt := s.now()
			ok, err := s.repo.Claim(gctx, id, claimedAt, claimedAt.Add(s.lease))
			if err != nil {
				s.logger.Warn("Failed to claim webhook delivery", zap.String("delivery_id", id.String()), zap.Error(err))
				return nil
			}
			if !ok {
				return nil
			}

			delivery, err := s.repo.GetDelivery(gctx, id)
			if err != nil {
				s.logger.Warn("Failed to reload claimed webhook delivery", zap.String("delivery_id", id.String()), zap.Error(err))
				return nil
			}
			if !dueForRetry(delivery, claimedAt) {
				// changed between listing and claiming; release the lease untouched
				if _, err := s.repo.SaveAttempt(gctx, delivery); err != nil {
					s.logger.Warn("Failed to release webhook delivery", zap.String("delivery_id", id.String()), zap.Error(err))
				}
				return nil
			}

			s.attempt(context.WithoutCancel(gctx), delivery)
			attempted.Add(1)
			return nil
		})
	}
	err = g.Wait()

	n := int(attempted.Load())
	s.metrics.SweepAttempted(n)
	if n > 0 {
		s.logger.Info("Webhook retry sweep finished", zap.Int("due", len(due)), zap.Int("attempted", n))
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return n, customErr.NewInternalError("webhook retry sweep failed", err)
	}
	return n, nil
}

func dueForRetry(d *model.WebhookDelivery, now time.Time) bool {
	if d.Status != model.DeliveryStatusRetrying && d.Status != model.DeliveryStatusFailed {
		return false
	}
	if d.RetryCount >= d.MaxRetries {
		return false
	}
	return d.NextRetryAt == nil || !d.NextRetryAt.After(now)
}

// attempt makes one HTTP call and records the outcome on d. A retry of a delivery
// with budget left spends one unit before the call. On failure a delivery with
// budget left becomes retrying with the next attempt 2^retry_count minutes out,
// otherwise failed.
func (s *WebhookService) attempt(ctx context.Context, d *model.WebhookDelivery) {
	if d.Status == model.DeliveryStatusSent {
		return
	}
	if d.Status != model.DeliveryStatusPending && d.RetryCount < d.MaxRetries {
		d.RetryCount++
	}

	started := time.Now()
	code, body, callErr := s.send(ctx, d)
	elapsed := time.Since(started).Seconds()

	now := s.now()
	d.UpdatedAt = now
	d.ResponseCode = code
	d.ResponseBody = body

	if callErr == nil {
		d.Status = model.DeliveryStatusSent
		d.DeliveredAt = &now
		d.NextRetryAt = nil
		d.LastError = ""
	} else {
		d.LastError = callErr.Error()
		if d.RetryCount < d.MaxRetries {
			d.Status = model.DeliveryStatusRetrying
			next := now.Add(backoff(d.RetryCount))
			d.NextRetryAt = &next
		} else {
			d.Status = model.DeliveryStatusFailed
			d.NextRetryAt = nil
		}
	}
	d.LockedUntil = nil

	saved, err := s.repo.SaveAttempt(ctx, d)
	if err != nil {
		s.logger.Error("Failed to record webhook attempt",
			zap.String("delivery_id", d.ID.String()),
			zap.String("status", string(d.Status)),
			zap.Error(err))
		return
	}
	if !saved {
		s.logger.Warn("Webhook delivery already sent by another attempt", zap.String("delivery_id", d.ID.String()))
		d.Status = model.DeliveryStatusSent
		return
	}

	s.metrics.WebhookAttempt(d.EventType, string(d.Status), elapsed)
	fields := []zap.Field{
		zap.String("delivery_id", d.ID.String()),
		zap.String("merchant_id", d.MerchantID),
		zap.String("event_type", d.EventType),
		zap.String("status", string(d.Status)),
		zap.Int("retry_count", d.RetryCount),
	}
	if code != nil {
		fields = append(fields, zap.Int("response_code", *code))
	}
	if callErr != nil {
		s.logger.Warn("Webhook delivery attempt failed", append(fields, zap.Error(callErr))...)
		return
	}
	s.logger.Info("Webhook delivered", fields...)
}

// send posts the stored payload. A non-2xx response is an error.
func (s *WebhookService) send(ctx context.Context, d *model.WebhookDelivery) (*int, string, error) {
	endpoint := d.Endpoint
	if endpoint == nil {
		ep, err := s.repo.GetEndpoint(ctx, d.EndpointID)
		if err != nil {
			return nil, "", fmt.Errorf("load endpoint: %w", err)
		}
		endpoint = ep
		d.Endpoint = ep
	}
	if !endpoint.IsActive {
		return nil, "", errors.New("endpoint is inactive")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(d.Payload))
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, d.Signature)
	req.Header.Set(HeaderEvent, d.EventType)
	req.Header.Set(HeaderDeliveryID, d.ID.String())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, model.MaxResponseBody))
	code := resp.StatusCode
	if code < 200 || code > 299 {
		return &code, string(raw), fmt.Errorf("endpoint returned status %d", code)
	}
	return &code, string(raw), nil
}
