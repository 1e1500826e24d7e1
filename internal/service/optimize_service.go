package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/oncall-roster-api/internal/dto"
	"github.com/noah-isme/oncall-roster-api/internal/solver"
	appErrors "github.com/noah-isme/oncall-roster-api/pkg/errors"
)

// SolveCacheRepository abstracts the solve-result cache store.
type SolveCacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// OptimizeServiceConfig tunes the solve pipeline.
type OptimizeServiceConfig struct {
	TimeBudget   time.Duration
	Workers      int
	NodeLimit    int64
	CacheEnabled bool
	CacheTTL     time.Duration
}

// OptimizeService runs the monthly roster solves.
type OptimizeService struct {
	validate *validator.Validate
	cache    SolveCacheRepository
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      OptimizeServiceConfig
}

// NewOptimizeService constructs the service with sane defaults.
func NewOptimizeService(cache SolveCacheRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg OptimizeServiceConfig) *OptimizeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = 10 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &OptimizeService{validate: validate, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

// Solve validates the request, consults the result cache and runs the
// search. Infeasibility comes back as a typed error carrying the reason so
// the handler can surface it verbatim.
func (s *OptimizeService) Solve(ctx context.Context, req *dto.OptimizeRequest) (*dto.OptimizeResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimize payload")
	}

	key, err := cacheKey(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "hash optimize payload")
	}
	if s.cacheEnabled() {
		var cached dto.OptimizeResponse
		if cacheErr := s.cache.Get(ctx, key, &cached); cacheErr == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		}
		s.metrics.RecordCacheLookup(false)
	}

	prob, err := solver.Compile(req)
	if err != nil {
		return nil, err
	}

	solveID := uuid.NewString()
	start := time.Now()
	out, err := solver.Solve(ctx, prob, solver.Options{
		TimeBudget: s.cfg.TimeBudget,
		Workers:    s.cfg.Workers,
		NodeLimit:  s.cfg.NodeLimit,
	})
	elapsed := time.Since(start)
	if err != nil {
		// A fault is the one case where the offending payload is worth
		// keeping around for reproduction.
		payload, _ := json.Marshal(req)
		s.logger.Error("solver fault",
			zap.String("solve_id", solveID),
			zap.Duration("elapsed", elapsed),
			zap.ByteString("payload", payload),
			zap.Error(err))
		s.metrics.ObserveSolve(SolveOutcomeFault, elapsed, 0)
		return nil, err
	}

	if !out.Feasible {
		outcome := SolveOutcomeInfeasible
		if out.Timeout {
			outcome = SolveOutcomeTimeout
		}
		s.metrics.ObserveSolve(outcome, elapsed, out.Nodes)
		s.logger.Info("solve infeasible",
			zap.String("solve_id", solveID),
			zap.Int("year", req.Year),
			zap.Int("month", req.Month),
			zap.String("reason", out.Reason),
			zap.Int64("nodes", out.Nodes),
			zap.Duration("elapsed", elapsed))
		return nil, appErrors.Clone(appErrors.ErrInfeasible, out.Reason)
	}

	outcome := SolveOutcomeFeasible
	if out.Proven {
		outcome = SolveOutcomeOptimal
	}
	s.metrics.ObserveSolve(outcome, elapsed, out.Nodes)
	s.logger.Info("solve complete",
		zap.String("solve_id", solveID),
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.String("outcome", outcome),
		zap.Int64("penalty", out.Penalty),
		zap.Int64("nodes", out.Nodes),
		zap.Duration("elapsed", elapsed))

	resp := solver.Format(prob, out.Assignment, out.Accounting)
	if s.cacheEnabled() {
		if cacheErr := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); cacheErr != nil {
			s.logger.Warn("solve cache set failed", zap.String("key", key), zap.Error(cacheErr))
		}
	}
	return resp, nil
}

func (s *OptimizeService) cacheEnabled() bool {
	return s.cfg.CacheEnabled && s.cache != nil
}

// cacheKey hashes the canonical JSON form of the request. Map keys marshal
// in sorted order and the solver is deterministic, so equal payloads always
// map to the same cached result.
func cacheKey(req *dto.OptimizeRequest) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("solve:%s", hex.EncodeToString(sum[:])), nil
}
