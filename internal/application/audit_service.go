package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mapaudit/mapaudit/internal/domain"
	"github.com/mapaudit/mapaudit/internal/domain/validate"
)

// AuditService orchestrates the pipeline:
// discover -> build index -> parse + validate (concurrent) -> aggregate.
//
// The index is fully built and frozen before any validator task starts;
// after that handoff no writer exists, which is what makes the concurrent
// validation phase safe without locking.
type AuditService struct {
	discoverer domain.MapDiscoverer
	parser     domain.MapParser
	builder    domain.IndexBuilder
	git        domain.GitInfo
	logger     *zap.Logger
}

func NewAuditService(
	discoverer domain.MapDiscoverer,
	parser domain.MapParser,
	builder domain.IndexBuilder,
	git domain.GitInfo,
	logger *zap.Logger,
) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		discoverer: discoverer,
		parser:     parser,
		builder:    builder,
		git:        git,
		logger:     logger,
	}
}

// mapOutcome carries one document's parse and validation output. Outcomes
// are collected into per-document slots so the concatenation order never
// depends on goroutine scheduling.
type mapOutcome struct {
	systemMap *domain.SystemMap
	manifest  *domain.RootManifest
	issues    []domain.Issue
}

// Audit runs one full audit. Only infrastructure faults (unreadable root,
// index build failure) return an error; everything else is reported inside
// the AuditResult.
func (s *AuditService) Audit(ctx context.Context, projectRoot string, cfg domain.AuditConfig) (*domain.AuditResult, error) {
	start := time.Now()

	parent := ctx
	if budget := cfg.Performance.MaxExecutionTime.Std(); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	// Exceeding the budget is never an infrastructure fault, no matter
	// which phase it interrupts: the run degrades to a partial result
	// with an audit-timeout warning.
	var timedOut bool

	candidates, err := s.discoverer.Discover(ctx, projectRoot, cfg.Scanning)
	if err != nil {
		if !budgetExceeded(parent, err) {
			return nil, fmt.Errorf("discovering system maps: %w", err)
		}
		timedOut = true
	}
	s.logger.Debug("discovery finished", zap.Int("candidates", len(candidates)))

	var index *domain.Index
	if !timedOut {
		index, err = s.builder.Build(ctx, projectRoot, cfg.Scanning)
		if err != nil {
			if !budgetExceeded(parent, err) {
				return nil, fmt.Errorf("building codebase index: %w", err)
			}
			timedOut = true
		}
	}

	outcomes := make([]mapOutcome, len(candidates))
	if !timedOut {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(s.workerLimit(cfg.Performance))

		for i, candidate := range candidates {
			if groupCtx.Err() != nil {
				// Cooperative cancellation: stop scheduling new tasks, keep
				// whatever the finished ones already produced.
				timedOut = true
				break
			}
			group.Go(func() error {
				outcomes[i] = s.auditOne(projectRoot, candidate, index, cfg)
				return nil
			})
		}
		_ = group.Wait() // tasks never return errors; issues carry the findings
	}

	var maps []*domain.SystemMap
	var manifest *domain.RootManifest
	issueLists := make([][]domain.Issue, 0, len(outcomes)+3)
	for _, outcome := range outcomes {
		issueLists = append(issueLists, outcome.issues)
		if outcome.systemMap != nil {
			maps = append(maps, outcome.systemMap)
		}
		if outcome.manifest != nil {
			if manifest == nil {
				manifest = outcome.manifest
			} else {
				issueLists = append(issueLists, []domain.Issue{{
					Kind:       domain.KindStructureInvalid,
					Severity:   domain.SeverityWarning,
					File:       outcome.manifest.File,
					Message:    fmt.Sprintf("multiple root manifests; %s already registered the domains", manifest.File),
					Suggestion: "keep a single root manifest per project",
				}})
			}
		}
	}

	if cfg.Validation.References {
		issueLists = append(issueLists, validate.References(manifest, maps, cfg))
	}
	if index != nil {
		issueLists = append(issueLists, index.ScanIssues)
	}

	if timedOut || budgetExceeded(parent, ctx.Err()) {
		issueLists = append(issueLists, []domain.Issue{{
			Kind:       domain.KindAuditTimeout,
			Severity:   domain.SeverityWarning,
			Message:    fmt.Sprintf("execution budget of %s exceeded; results are partial", cfg.Performance.MaxExecutionTime.Std()),
			Suggestion: "raise performance.max_execution_time or narrow scanning patterns",
		}})
	}

	result := domain.Aggregate(len(candidates), issueLists...)
	result.Duration = time.Since(start)
	if s.git != nil && s.git.IsGitRepo(projectRoot) {
		if hash, err := s.git.CommitHash(projectRoot); err == nil {
			result.CommitHash = hash
		}
	}

	s.logger.Info("audit finished",
		zap.Int("maps", result.MapsTotal),
		zap.Int("errors", result.Errors),
		zap.Int("warnings", result.Warnings),
		zap.Bool("passed", result.Passed),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// auditOne parses a single document and, when it is a domain map, runs the
// per-map validators over the shared read-only index. Each validator's
// issue list keeps its own emission order.
func (s *AuditService) auditOne(projectRoot, candidate string, index *domain.Index, cfg domain.AuditConfig) mapOutcome {
	systemMap, manifest, issues := s.parser.Parse(joinRoot(projectRoot, candidate), projectRoot)

	outcome := mapOutcome{systemMap: systemMap, manifest: manifest, issues: issues}
	if systemMap == nil {
		return outcome
	}

	if cfg.Validation.Components {
		outcome.issues = append(outcome.issues, validate.Components(systemMap, index, cfg)...)
	}
	if cfg.Validation.APIs {
		outcome.issues = append(outcome.issues, validate.API(systemMap, index, cfg)...)
	}
	if cfg.Validation.Flows {
		outcome.issues = append(outcome.issues, validate.Flows(systemMap, index, cfg)...)
	}
	outcome.issues = append(outcome.issues, validate.Size(systemMap)...)
	return outcome
}

// budgetExceeded reports whether err comes from the execution budget
// rather than from the caller's own context. A caller-side cancellation or
// deadline stays an infrastructure fault.
func budgetExceeded(parent context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil
}

func joinRoot(projectRoot, rel string) string {
	return filepath.Join(projectRoot, filepath.FromSlash(rel))
}

func (s *AuditService) workerLimit(perf domain.PerformanceConfig) int {
	if !perf.Parallel {
		return 1
	}
	if perf.Workers > 0 {
		return perf.Workers
	}
	return runtime.NumCPU()
}
