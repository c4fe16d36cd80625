package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"complaintdraft-backend/models"
	"complaintdraft-backend/repository"
	"complaintdraft-backend/schema"
	"complaintdraft-backend/storage"
	"complaintdraft-backend/triage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrSessionNotFound     = repository.ErrSessionNotFound
	ErrUnknownTriageOption = errors.New("unknown triage option")
	ErrCompositionFailed   = errors.New("failed to compose complaint draft")
	ErrEmptyMessage        = errors.New("message is empty")
	ErrNotConfigured       = errors.New("intake service is not fully configured")
)

// DraftArchive persists composed drafts
type DraftArchive interface {
	Create(ctx context.Context, draft *models.Draft) error
}

// IntakeService drives the intake conversation: element extraction, triage,
// follow-up selection and draft composition
type IntakeService struct {
	sessions  repository.SessionStore
	loader    *schema.Loader
	triage    *triage.Evaluator
	extractor *ElementExtractor
	caution   *CautionClassifier
	composer  *ComplaintComposer
	archive   DraftArchive
	exports   storage.Storage
	logger    *zap.Logger
	now       func() time.Time
}

// IntakeServiceOption is a functional option for IntakeService
type IntakeServiceOption func(*IntakeService)

// IntakeWithSessionStore sets the session store
func IntakeWithSessionStore(store repository.SessionStore) IntakeServiceOption {
	return func(s *IntakeService) {
		s.sessions = store
	}
}

// IntakeWithSchemaLoader sets the offense schema loader
func IntakeWithSchemaLoader(loader *schema.Loader) IntakeServiceOption {
	return func(s *IntakeService) {
		s.loader = loader
	}
}

// IntakeWithTriageEvaluator sets the triage evaluator
func IntakeWithTriageEvaluator(evaluator *triage.Evaluator) IntakeServiceOption {
	return func(s *IntakeService) {
		s.triage = evaluator
	}
}

// IntakeWithExtractor sets the element extractor
func IntakeWithExtractor(extractor *ElementExtractor) IntakeServiceOption {
	return func(s *IntakeService) {
		s.extractor = extractor
	}
}

// IntakeWithCautionClassifier sets the caution classifier
func IntakeWithCautionClassifier(classifier *CautionClassifier) IntakeServiceOption {
	return func(s *IntakeService) {
		s.caution = classifier
	}
}

// IntakeWithComposer sets the complaint composer
func IntakeWithComposer(composer *ComplaintComposer) IntakeServiceOption {
	return func(s *IntakeService) {
		s.composer = composer
	}
}

// IntakeWithDraftArchive sets where composed drafts are archived
func IntakeWithDraftArchive(archive DraftArchive) IntakeServiceOption {
	return func(s *IntakeService) {
		s.archive = archive
	}
}

// IntakeWithDraftStorage sets where composed drafts are exported
func IntakeWithDraftStorage(exports storage.Storage) IntakeServiceOption {
	return func(s *IntakeService) {
		s.exports = exports
	}
}

// IntakeWithLogger sets the logger
func IntakeWithLogger(logger *zap.Logger) IntakeServiceOption {
	return func(s *IntakeService) {
		s.logger = logger
	}
}

// IntakeWithClock sets the time source used for draft timestamps
func IntakeWithClock(now func() time.Time) IntakeServiceOption {
	return func(s *IntakeService) {
		s.now = now
	}
}

// NewIntakeService creates a new intake service
func NewIntakeService(opts ...IntakeServiceOption) *IntakeService {
	s := &IntakeService{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitResult represents the result of starting a session
type InitResult struct {
	SessionID uuid.UUID
	Message   string
}

// SendRequest represents one user turn
type SendRequest struct {
	SessionID string
	Message   string
}

// Progress summarizes element coverage after a turn
type Progress struct {
	Complete  bool
	Elements  models.Collected
	Satisfied int
	Total     int
}

// TriageResult is returned in place of a follow-up when triage fires
type TriageResult struct {
	Reason   string
	Advisory string
	Options  []models.TriageOption
}

// SendResult represents the outcome of a user turn
type SendResult struct {
	SessionID      uuid.UUID
	Reply          string
	FollowUp       *FollowUp
	Caution        bool
	CautionMessage string
	Progress       Progress
	Triage         *TriageResult
}

// SelectTriageOptionRequest represents a triage option choice
type SelectTriageOptionRequest struct {
	SessionID string
	OptionKey string
}

// SelectTriageOptionResult represents the outcome of a triage option choice
type SelectTriageOptionResult struct {
	Message string
	Offense string
	Switched bool
}

// ComposeRequest represents a request to compose the complaint draft
type ComposeRequest struct {
	SessionID     string
	Message       string
	EvidenceNotes []string
}

// ComposeResult represents a composed draft
type ComposeResult struct {
	Draft *models.Draft
}

// Offense returns the merged schema for an offense key
func (s *IntakeService) Offense(ctx context.Context, key string) (*models.Offense, error) {
	if s.loader == nil {
		return nil, ErrNotConfigured
	}
	return s.loader.Load(ctx, key)
}

// Init starts a new session for offense. Configuration errors in the offense
// schema fail the call and no session is created.
func (s *IntakeService) Init(ctx context.Context, offense string) (*InitResult, error) {
	if s.sessions == nil || s.loader == nil {
		return nil, ErrNotConfigured
	}
	if _, err := s.loader.Load(ctx, offense); err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:         uuid.New(),
		OffenseKey: offense,
		State:      models.SessionCollecting,
		History:    []models.Message{},
		Collected:  models.Collected{},
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("session started",
		zap.String("session_id", session.ID.String()),
		zap.String("offense", offense))

	return &InitResult{SessionID: session.ID, Message: OpeningPrompt}, nil
}

// Send records a user message, re-extracts element states from the whole
// narrative and either returns a triage decision or the next follow-up.
func (s *IntakeService) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := parseSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	result := &SendResult{SessionID: id}
	err = s.sessions.Update(ctx, id, func(session *models.Session) error {
		offense, err := s.loader.Load(ctx, session.OffenseKey)
		if err != nil {
			return err
		}

		session.History = append(session.History, models.Message{Role: models.RoleUser, Content: req.Message})
		narrative := session.UserText()

		collected := s.extractor.Extract(ctx, narrative, offense)
		session.Collected = collected
		result.Progress = progressOf(collected, offense)

		if !session.TriageDismissed && s.triage != nil {
			decision, err := s.triage.Evaluate(ctx, session.OffenseKey, narrative)
			if err != nil {
				return fmt.Errorf("failed to evaluate triage: %w", err)
			}
			if decision != nil {
				session.State = models.SessionTriaged
				session.PendingTriage = decision.Options
				// completion is only reached through follow-up selection
				result.Progress.Complete = false
				result.Reply = decision.Advisory
				result.Triage = &TriageResult{
					Reason:   decision.Reason,
					Advisory: decision.Advisory,
					Options:  decision.Options,
				}
				return nil
			}
		}
		session.PendingTriage = nil

		followUp := SelectFollowUp(collected, offense)
		if followUp == nil {
			session.State = models.SessionComplete
			result.Reply = CompletionPrompt
		} else {
			session.State = models.SessionCollecting
			result.Reply = followUp.Question
			result.FollowUp = followUp
		}
		session.History = append(session.History, models.Message{Role: models.RoleAssistant, Content: result.Reply})

		result.CautionMessage = s.classify(ctx, id, narrative)
		result.Caution = result.CautionMessage != ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SelectTriageOption applies a triage option. Options without a switch target
// keep the offense and suppress triage for the rest of the session; options
// with one move the session to the target offense and reset collected states.
func (s *IntakeService) SelectTriageOption(ctx context.Context, req SelectTriageOptionRequest) (*SelectTriageOptionResult, error) {
	if s.sessions == nil || s.loader == nil {
		return nil, ErrNotConfigured
	}
	id, err := parseSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}

	result := &SelectTriageOptionResult{}
	err = s.sessions.Update(ctx, id, func(session *models.Session) error {
		option, err := s.resolveOption(ctx, session, req.OptionKey)
		if err != nil {
			return err
		}

		if option.SwitchTo == "" || option.SwitchTo == session.OffenseKey {
			session.TriageDismissed = true
		} else {
			if _, err := s.loader.Load(ctx, option.SwitchTo); err != nil {
				return fmt.Errorf("failed to switch offense to %s: %w", option.SwitchTo, err)
			}
			s.logger.Info("session switched offense",
				zap.String("session_id", id.String()),
				zap.String("from", session.OffenseKey),
				zap.String("to", option.SwitchTo))

			session.OffenseKey = option.SwitchTo
			session.Collected = models.Collected{}
			session.TriageDismissed = false
			result.Switched = true
		}
		session.State = models.SessionCollecting
		session.PendingTriage = nil

		result.Offense = session.OffenseKey
		result.Message = option.Message
		if result.Message == "" {
			result.Message = option.Label
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Compose produces the complaint draft from the session's collected states.
// A composition failure leaves the session unchanged.
func (s *IntakeService) Compose(ctx context.Context, req ComposeRequest) (*ComposeResult, error) {
	if s.sessions == nil || s.loader == nil || s.composer == nil {
		return nil, ErrNotConfigured
	}
	id, err := parseSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}

	notes := req.EvidenceNotes
	if notes == nil {
		notes = []string{}
	}

	var draft *models.Draft
	err = s.sessions.Update(ctx, id, func(session *models.Session) error {
		offense, err := s.loader.Load(ctx, session.OffenseKey)
		if err != nil {
			return err
		}

		composed, err := s.composer.Compose(ctx, offense, session.Collected, notes)
		if err != nil {
			return err
		}

		if strings.TrimSpace(req.Message) != "" {
			session.History = append(session.History, models.Message{Role: models.RoleUser, Content: req.Message})
		}

		draft = &models.Draft{
			ID:            uuid.New(),
			SessionID:     session.ID,
			Offense:       composed.Offense,
			Title:         composed.Title,
			DraftText:     composed.DraftText,
			EvidenceNotes: notes,
			Checksum:      Checksum(composed.DraftText),
			CreatedAt:     s.now(),
		}
		s.persist(ctx, draft)

		session.Draft = draft
		session.State = models.SessionComposed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ComposeResult{Draft: draft}, nil
}

// Session returns a snapshot of a session
func (s *IntakeService) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	if s.sessions == nil {
		return nil, ErrNotConfigured
	}
	id, err := parseSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessions.Get(ctx, id)
}

// Checksum returns the hex BLAKE2b-256 digest of a draft's text
func Checksum(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (s *IntakeService) ready() error {
	if s.sessions == nil || s.loader == nil || s.extractor == nil {
		return ErrNotConfigured
	}
	return nil
}

func (s *IntakeService) resolveOption(ctx context.Context, session *models.Session, key string) (models.TriageOption, error) {
	for _, o := range session.PendingTriage {
		if o.Key == key {
			return o, nil
		}
	}

	if s.triage != nil {
		rules, err := s.triage.Rules(ctx, session.OffenseKey)
		if err != nil {
			return models.TriageOption{}, fmt.Errorf("failed to load triage rules: %w", err)
		}
		if rules != nil {
			if o, ok := rules.Option(key); ok {
				return o, nil
			}
		}
	}
	return models.TriageOption{}, fmt.Errorf("%w: %q", ErrUnknownTriageOption, key)
}

// classify runs the caution classifier. Failures never fail the turn.
func (s *IntakeService) classify(ctx context.Context, id uuid.UUID, narrative string) string {
	if s.caution == nil {
		return ""
	}
	message, err := s.caution.Classify(ctx, narrative)
	if err != nil {
		s.logger.Warn("caution classification failed",
			zap.String("session_id", id.String()), zap.Error(err))
		return ""
	}
	return message
}

// persist exports and archives a draft. Failures are logged.
func (s *IntakeService) persist(ctx context.Context, draft *models.Draft) {
	if s.exports != nil {
		path, err := s.exports.Upload(ctx, draft.ID, draft.Offense+".md", strings.NewReader(renderDraft(draft)))
		if err != nil {
			s.logger.Error("failed to export draft",
				zap.String("draft_id", draft.ID.String()), zap.Error(err))
		} else {
			draft.StoragePath = &path
		}
	}

	if s.archive != nil {
		if err := s.archive.Create(ctx, draft); err != nil {
			s.logger.Error("failed to archive draft",
				zap.String("draft_id", draft.ID.String()), zap.Error(err))
		}
	}
}

func renderDraft(draft *models.Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", draft.Title, strings.TrimSpace(draft.DraftText))
	if len(draft.EvidenceNotes) > 0 {
		b.WriteString("\n## Evidence notes\n\n")
		for _, n := range draft.EvidenceNotes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	fmt.Fprintf(&b, "\n<!-- blake2b-256: %s -->\n", draft.Checksum)
	return b.String()
}

func progressOf(collected models.Collected, offense *models.Offense) Progress {
	p := Progress{Elements: collected, Total: len(offense.Elements)}
	for _, el := range offense.Elements {
		if collected[el.ID].Status == models.StatusSatisfied {
			p.Satisfied++
		}
	}
	p.Complete = p.Satisfied == p.Total
	return p
}

// parseSessionID maps malformed ids to ErrSessionNotFound
func parseSessionID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrSessionNotFound, raw)
	}
	return id, nil
}

// IsConfigurationError reports whether err comes from a broken offense or
// triage document rather than from the request
func IsConfigurationError(err error) bool {
	return schema.IsConfigurationError(err) || errors.Is(err, triage.ErrInvalidPattern) || errors.Is(err, triage.ErrInvalidRules)
}
