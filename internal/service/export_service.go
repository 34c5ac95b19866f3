package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tanroads/rrs-api/internal/dto"
	"github.com/tanroads/rrs-api/internal/models"
	"github.com/tanroads/rrs-api/pkg/config"
	appErrors "github.com/tanroads/rrs-api/pkg/errors"
	"github.com/tanroads/rrs-api/pkg/export"
	"github.com/tanroads/rrs-api/pkg/storage"
)

// ExportService renders the application register as CSV and single
// applications as PDF summaries. It reads through ApplicationService so
// actor scoping stays in one place.
type ExportService struct {
	apps    *ApplicationService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	archive *storage.Archive
	signer  *storage.DownloadSigner
	cfg     config.ExportsConfig
	logger  *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(apps *ApplicationService, cfg config.ExportsConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		apps:   apps,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		cfg:    cfg,
		logger: logger,
	}
}

// SetArchive enables on-disk audit copies of generated exports together
// with signed re-download tokens.
func (s *ExportService) SetArchive(archive *storage.Archive, signer *storage.DownloadSigner) {
	s.archive = archive
	s.signer = signer
}

var registerHeaders = []string{
	"Application Number", "Road Name", "Current Class", "Proposed Class",
	"Length (km)", "Applicant Type", "Status", "Submitted", "Decided",
}

// ApplicationsCSV renders the register of applications visible to the
// actor.
func (s *ExportService) ApplicationsCSV(ctx context.Context, query dto.ApplicationQuery, actor models.Actor) ([]byte, string, error) {
	if !s.cfg.Enabled {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	query.Page = 1
	query.PageSize = s.maxRows()

	apps, _, err := s.apps.List(ctx, query, actor)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{Headers: registerHeaders}
	for _, app := range apps {
		dataset.Rows = append(dataset.Rows, registerRow(app))
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	filename := fmt.Sprintf("applications-%s.csv", time.Now().UTC().Format("20060102"))
	s.archiveCopy(filename, payload)
	return payload, filename, nil
}

// ApplicationPDF renders the full summary of one application.
func (s *ExportService) ApplicationPDF(ctx context.Context, id int64, actor models.Actor) ([]byte, string, error) {
	if !s.cfg.Enabled {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	detail, err := s.apps.Detail(ctx, id, actor)
	if err != nil {
		return nil, "", err
	}
	app := detail.Application

	number := "(not yet assigned)"
	if app.ApplicationNumber != nil {
		number = *app.ApplicationNumber
	}

	sections := []export.Section{
		{
			Title: "Application",
			Fields: [][2]string{
				{"Application Number", number},
				{"Status", detail.StatusDisplayName},
				{"Applicant Type", string(app.ApplicantType)},
				{"Submitted", formatDate(app.SubmissionDate)},
				{"Decided", formatDate(app.DecisionDate)},
			},
		},
		{
			Title: "Road",
			Fields: [][2]string{
				{"Road Name", app.RoadName},
				{"Length (km)", strconv.FormatFloat(app.RoadLength, 'f', 1, 64)},
				{"Current Class", string(app.CurrentClass)},
				{"Proposed Class", string(app.ProposedClass)},
				{"Starting Point", app.StartingPoint},
				{"Terminal Point", app.TerminalPoint},
				{"Reasons", app.ReclassificationReason},
			},
		},
	}

	if len(detail.EligibilityCriteria) > 0 {
		section := export.Section{Title: "Eligibility Criteria"}
		for _, c := range detail.EligibilityCriteria {
			details := ""
			if c.Details != nil {
				details = *c.Details
			}
			section.Fields = append(section.Fields, [2]string{c.Code, details})
		}
		sections = append(sections, section)
	}

	if len(detail.ApprovalHistory) > 0 {
		section := export.Section{Title: "Approval History"}
		for _, action := range detail.ApprovalHistory {
			section.Fields = append(section.Fields, [2]string{
				action.ActionDate.Format("2006-01-02"),
				fmt.Sprintf("%s by %s (%s -> %s)", action.Action, action.ActorName, action.FromStatus, action.ToStatus),
			})
		}
		sections = append(sections, section)
	}

	if detail.MinisterDecision != nil {
		d := detail.MinisterDecision
		fields := [][2]string{
			{"Decision", string(d.Decision)},
			{"Decided By", d.DecidedByName},
			{"Date", d.DecisionDate.Format("2006-01-02")},
		}
		if d.DisapprovalType != nil {
			fields = append(fields, [2]string{"Disapproval Type", string(*d.DisapprovalType)})
		}
		sections = append(sections, export.Section{Title: "Minister Decision", Fields: fields})
	}

	if detail.Gazettement != nil && detail.Gazettement.GazetteNumber != nil {
		sections = append(sections, export.Section{
			Title: "Gazettement",
			Fields: [][2]string{
				{"Gazette Number", *detail.Gazettement.GazetteNumber},
				{"Gazette Date", formatDate(detail.Gazettement.GazetteDate)},
			},
		})
	}

	payload, err := s.pdf.RenderDocument("Road Reclassification Application", sections)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	filename := fmt.Sprintf("application-%d.pdf", app.ID)
	s.archiveCopy(filename, payload)
	return payload, filename, nil
}

// ArchiveToken mints a signed re-download token for an archived export.
// It returns false when archiving is disabled.
func (s *ExportService) ArchiveToken(filename string) (string, bool) {
	if s.archive == nil || s.signer == nil {
		return "", false
	}
	token, _, err := s.signer.Generate(uuid.NewString(), filename)
	if err != nil {
		s.logger.Warn("failed to sign export token", zap.String("file", filename), zap.Error(err))
		return "", false
	}
	return token, true
}

// ArchivedExport validates a download token and returns the absolute
// path of the archived file.
func (s *ExportService) ArchivedExport(token string) (string, error) {
	if s.archive == nil || s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "export archive is disabled")
	}
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	path, err := s.archive.Resolve(relPath)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "invalid archive path")
	}
	file, err := s.archive.Open(relPath)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "archived export no longer available")
	}
	_ = file.Close()
	return path, nil
}

// archiveCopy stores an audit copy of a rendered export. Failures are
// logged but never fail the request.
func (s *ExportService) archiveCopy(filename string, payload []byte) {
	if s.archive == nil {
		return
	}
	if _, err := s.archive.Save(filename, payload); err != nil {
		s.logger.Warn("failed to archive export", zap.String("file", filename), zap.Error(err))
	}
}

func (s *ExportService) maxRows() int {
	if s.cfg.MaxRows > 0 {
		return s.cfg.MaxRows
	}
	return 100
}

func registerRow(app models.Application) map[string]string {
	number := ""
	if app.ApplicationNumber != nil {
		number = *app.ApplicationNumber
	}
	return map[string]string{
		"Application Number": number,
		"Road Name":          app.RoadName,
		"Current Class":      string(app.CurrentClass),
		"Proposed Class":     string(app.ProposedClass),
		"Length (km)":        strconv.FormatFloat(app.RoadLength, 'f', 1, 64),
		"Applicant Type":     string(app.ApplicantType),
		"Status":             string(app.Status),
		"Submitted":          formatDate(app.SubmissionDate),
		"Decided":            formatDate(app.DecisionDate),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
