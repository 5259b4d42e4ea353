package dbmodels

import (
	"admission-backend/models"
	"time"

	"github.com/pkg/errors"
)

type candidateFieldRef func(c *Candidate) any

var candidateFieldRefs = map[models.TargetField]candidateFieldRef{
	models.FieldCivility:         func(c *Candidate) any { return &c.Civility },
	models.FieldFirstName:        func(c *Candidate) any { return &c.FirstName },
	models.FieldLastName:         func(c *Candidate) any { return &c.LastName },
	models.FieldCinNumber:        func(c *Candidate) any { return &c.CinNumber },
	models.FieldMassarCode:       func(c *Candidate) any { return &c.MassarCode },
	models.FieldBirthDate:        func(c *Candidate) any { return &c.BirthDate },
	models.FieldBirthCity:        func(c *Candidate) any { return &c.BirthCity },
	models.FieldBirthCountry:     func(c *Candidate) any { return &c.BirthCountry },
	models.FieldNationality:      func(c *Candidate) any { return &c.Nationality },
	models.FieldEmail:            func(c *Candidate) any { return &c.Email },
	models.FieldPhone:            func(c *Candidate) any { return &c.Phone },
	models.FieldAddress:          func(c *Candidate) any { return &c.Address },
	models.FieldPostalCode:       func(c *Candidate) any { return &c.PostalCode },
	models.FieldCity:             func(c *Candidate) any { return &c.City },
	models.FieldResidenceCountry: func(c *Candidate) any { return &c.ResidenceCountry },

	models.FieldBacSeries:  func(c *Candidate) any { return &c.BacSeries },
	models.FieldBacYear:    func(c *Candidate) any { return &c.BacYear },
	models.FieldBacSchool:  func(c *Candidate) any { return &c.BacSchool },
	models.FieldBacCountry: func(c *Candidate) any { return &c.BacCountry },

	models.FieldUniversity:     func(c *Candidate) any { return &c.University },
	models.FieldDegreeField:    func(c *Candidate) any { return &c.DegreeField },
	models.FieldUniversityCity: func(c *Candidate) any { return &c.UniversityCity },
	models.FieldDegreeYear:     func(c *Candidate) any { return &c.DegreeYear },

	models.FieldAvgYear1: func(c *Candidate) any { return &c.AvgYear1 },
	models.FieldAvgYear2: func(c *Candidate) any { return &c.AvgYear2 },
	models.FieldAvgYear3: func(c *Candidate) any { return &c.AvgYear3 },
	models.FieldAvgSem1:  func(c *Candidate) any { return &c.AvgSem1 },
	models.FieldAvgSem2:  func(c *Candidate) any { return &c.AvgSem2 },
	models.FieldAvgSem3:  func(c *Candidate) any { return &c.AvgSem3 },
	models.FieldAvgSem4:  func(c *Candidate) any { return &c.AvgSem4 },
	models.FieldAvgSem5:  func(c *Candidate) any { return &c.AvgSem5 },
	models.FieldAvgSem6:  func(c *Candidate) any { return &c.AvgSem6 },

	models.FieldAcademicLevel:   func(c *Candidate) any { return &c.AcademicLevel },
	models.FieldAcademicScore:   func(c *Candidate) any { return &c.AcademicScore },
	models.FieldExperienceScore: func(c *Candidate) any { return &c.ExperienceScore },
	models.FieldMotivationScore: func(c *Candidate) any { return &c.MotivationScore },
	models.FieldEvaluationNote:  func(c *Candidate) any { return &c.EvaluationNote },
	models.FieldNotes:           func(c *Candidate) any { return &c.Notes },

	models.FieldPaymentConfirmed:   func(c *Candidate) any { return &c.PaymentConfirmed },
	models.FieldDocumentsValidated: func(c *Candidate) any { return &c.DocumentsValidated },
	models.FieldIdentityVerified:   func(c *Candidate) any { return &c.IdentityVerified },
	models.FieldAcademicValidated:  func(c *Candidate) any { return &c.AcademicValidated },
	models.FieldInterviewScheduled: func(c *Candidate) any { return &c.InterviewScheduled },
	models.FieldInterviewDone:      func(c *Candidate) any { return &c.InterviewDone },
}

// FieldColumn колонка таблицы кандидатов, в которой хранится поле
func FieldColumn(field models.TargetField) string {
	if field.IsCustom() {
		return "custom_fields"
	}
	return string(field)
}

// SetField записывает значение в поле карточки с приведением к типу поля
func (c *Candidate) SetField(field models.TargetField, value any) error {
	if field.IsCustom() {
		if _, err := models.ParseTargetField(string(field)); err != nil {
			return err
		}
		if c.CustomFields == nil {
			c.CustomFields = map[string]any{}
		}
		c.CustomFields[field.CustomName()] = value
		return nil
	}
	spec, ok := field.Spec()
	if !ok {
		return errors.Errorf("неизвестное поле кандидата: %q", field)
	}
	if spec.Kind == models.FieldKindAttachment {
		return errors.Errorf("поле %s принимает только вложения", field)
	}
	ref, ok := candidateFieldRefs[field]
	if !ok {
		return errors.Errorf("поле %s не хранится в карточке кандидата", field)
	}

	switch ptr := ref(c).(type) {
	case *string:
		var s string
		var err error
		if spec.Kind == models.FieldKindSelection {
			s, err = models.CoerceSelection(field, value)
		} else {
			s, err = models.CoerceString(value)
		}
		if err != nil {
			return err
		}
		*ptr = s
	case **int:
		v, err := models.CoerceInt(value)
		if err != nil {
			return err
		}
		*ptr = &v
	case **float64:
		v, err := models.CoerceFloat(value)
		if err != nil {
			return err
		}
		*ptr = &v
	case **time.Time:
		v, err := models.CoerceDate(value)
		if err != nil {
			return err
		}
		*ptr = &v
	case *bool:
		v, err := models.CoerceBool(value)
		if err != nil {
			return err
		}
		*ptr = v
	default:
		return errors.Errorf("неподдерживаемый тип поля %s", field)
	}
	return nil
}

// FieldValues заполненные известные поля карточки
func (c *Candidate) FieldValues() map[string]any {
	result := make(map[string]any, len(candidateFieldRefs))
	for field, ref := range candidateFieldRefs {
		switch ptr := ref(c).(type) {
		case *string:
			if *ptr != "" {
				result[string(field)] = *ptr
			}
		case **int:
			if *ptr != nil {
				result[string(field)] = **ptr
			}
		case **float64:
			if *ptr != nil {
				result[string(field)] = **ptr
			}
		case **time.Time:
			if *ptr != nil {
				result[string(field)] = (*ptr).Format("2006-01-02")
			}
		case *bool:
			if *ptr {
				result[string(field)] = true
			}
		}
	}
	return result
}
