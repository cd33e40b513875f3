package importer

import (
	"errors"
	"fmt"

	"github.com/AlessLeS/ism-partners-db/internal/models"
	"github.com/AlessLeS/ism-partners-db/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PartnerWriter is where imported partners go.
type PartnerWriter interface {
	Create(p *models.Partner) error
}

// Result summarizes one import run.
type Result struct {
	RunID    string
	Rows     int
	Inserted int
	// Fallbacks counts rows whose employees_count cell was unusable and stored as 0.
	Fallbacks int
	// Skipped counts rows the store refused, such as rows with no company name.
	Skipped int
}

// Importer turns parsed rows into partners.
type Importer struct {
	partners PartnerWriter
	log      *zap.Logger
}

// New returns an Importer writing to partners. A nil log discards output.
func New(partners PartnerWriter, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{partners: partners, log: log}
}

// BuildPartner assembles the partner for row i of ds. Text cells are copied
// as they are; unmapped fields stay empty.
func BuildPartner(ds *Dataset, i int, m Mapping) (models.Partner, Employees) {
	cell := func(field string) string {
		src := m.Source(field)
		if src == Unmapped {
			return ""
		}
		return ds.Cell(i, src)
	}

	emp := ParseEmployees(cell(FieldEmployeesCount))
	p := models.Partner{
		CompanyName:    cell(FieldCompanyName),
		Address:        cell(FieldAddress),
		Number:         cell(FieldNumber),
		PostalCode:     cell(FieldPostalCode),
		City:           cell(FieldCity),
		Phone:          cell(FieldPhone),
		EmployeesCount: emp.Value,
		Website:        cell(FieldWebsite),
		Responsible:    cell(FieldResponsible),
		Role:           cell(FieldRole),
		Email:          cell(FieldEmail),
		Activity:       cell(FieldActivity),
		SectorClass:    cell(FieldSectorClass),
		Tags:           cell(FieldTags),
	}
	return p, emp
}

// Run inserts one partner per row of ds, in file order. A mapping without
// company_name, or naming a column ds lacks, is refused before any insert.
// Each row is committed on its own; when the store fails for another reason
// than validation, Run stops and returns what was done so far with the error.
func (im *Importer) Run(ds *Dataset, m Mapping) (Result, error) {
	res := Result{RunID: uuid.NewString()}

	if err := m.Validate(ds.Headers); err != nil {
		return res, err
	}

	log := im.log.With(zap.String("run_id", res.RunID))
	log.Info("import started", zap.Int("rows", ds.Len()))

	for i := range ds.Rows {
		res.Rows++
		p, emp := BuildPartner(ds, i, m)
		if emp.Fallback {
			res.Fallbacks++
			log.Debug("employees_count defaulted to 0",
				zap.Int("row", i+1),
				zap.String("value", ds.Cell(i, m.Source(FieldEmployeesCount))),
			)
		}

		err := im.partners.Create(&p)
		var verr *repository.ValidationError
		switch {
		case err == nil:
			res.Inserted++
		case errors.As(err, &verr):
			res.Skipped++
			log.Warn("row skipped", zap.Int("row", i+1), zap.Error(err))
		default:
			log.Error("import aborted", zap.Int("row", i+1), zap.Error(err))
			return res, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	log.Info("import finished",
		zap.Int("inserted", res.Inserted),
		zap.Int("fallbacks", res.Fallbacks),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}
