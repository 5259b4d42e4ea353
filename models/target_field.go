package models

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// FieldKind тип значения поля кандидата
type FieldKind string

const (
	FieldKindString     FieldKind = "string"
	FieldKindInt        FieldKind = "int"
	FieldKindFloat      FieldKind = "float"
	FieldKindDate       FieldKind = "date"
	FieldKindBool       FieldKind = "bool"
	FieldKindSelection  FieldKind = "selection"
	FieldKindAttachment FieldKind = "attachment"
)

// TargetField поле карточки кандидата: одно из известных полей либо пользовательское (CustomField)
type TargetField string

const (
	FieldCivility         TargetField = "civility"
	FieldFirstName        TargetField = "first_name"
	FieldLastName         TargetField = "last_name"
	FieldCinNumber        TargetField = "cin_number"
	FieldMassarCode       TargetField = "massar_code"
	FieldBirthDate        TargetField = "birth_date"
	FieldBirthCity        TargetField = "birth_city"
	FieldBirthCountry     TargetField = "birth_country"
	FieldNationality      TargetField = "nationality"
	FieldEmail            TargetField = "email"
	FieldPhone            TargetField = "phone"
	FieldAddress          TargetField = "address"
	FieldPostalCode       TargetField = "postal_code"
	FieldCity             TargetField = "city"
	FieldResidenceCountry TargetField = "residence_country"

	FieldBacSeries  TargetField = "bac_series"
	FieldBacYear    TargetField = "bac_year"
	FieldBacSchool  TargetField = "bac_school"
	FieldBacCountry TargetField = "bac_country"

	FieldUniversity     TargetField = "university"
	FieldDegreeField    TargetField = "degree_field"
	FieldUniversityCity TargetField = "university_city"
	FieldDegreeYear     TargetField = "degree_year"

	FieldAvgYear1 TargetField = "avg_year1"
	FieldAvgYear2 TargetField = "avg_year2"
	FieldAvgYear3 TargetField = "avg_year3"
	FieldAvgSem1  TargetField = "avg_sem1"
	FieldAvgSem2  TargetField = "avg_sem2"
	FieldAvgSem3  TargetField = "avg_sem3"
	FieldAvgSem4  TargetField = "avg_sem4"
	FieldAvgSem5  TargetField = "avg_sem5"
	FieldAvgSem6  TargetField = "avg_sem6"

	FieldAcademicLevel   TargetField = "academic_level"
	FieldAcademicScore   TargetField = "academic_score"
	FieldExperienceScore TargetField = "experience_score"
	FieldMotivationScore TargetField = "motivation_score"
	FieldEvaluationNote  TargetField = "evaluation_note"
	FieldNotes           TargetField = "notes"

	FieldPaymentConfirmed   TargetField = "payment_confirmed"
	FieldDocumentsValidated TargetField = "documents_validated"
	FieldIdentityVerified   TargetField = "identity_verified"
	FieldAcademicValidated  TargetField = "academic_validated"
	FieldInterviewScheduled TargetField = "interview_scheduled"
	FieldInterviewDone      TargetField = "interview_done"

	FieldBacScan        TargetField = "bac_scan"
	FieldBac2Transcript TargetField = "bac2_transcript"
	FieldBac3Transcript TargetField = "bac3_transcript"
	FieldPaymentProof   TargetField = "payment_proof"
	FieldSem1Transcript TargetField = "sem1_transcript"
	FieldSem2Transcript TargetField = "sem2_transcript"
	FieldSem3Transcript TargetField = "sem3_transcript"
	FieldSem4Transcript TargetField = "sem4_transcript"
	FieldSem5Transcript TargetField = "sem5_transcript"
	FieldSem6Transcript TargetField = "sem6_transcript"
)

// TargetFieldSpec описание поля кандидата для выбора в сопоставлении
type TargetFieldSpec struct {
	Field   TargetField `json:"field"`
	Label   string      `json:"label"`
	Kind    FieldKind   `json:"kind"`
	Options []string    `json:"options,omitempty"`
	Custom  bool        `json:"custom,omitempty"`
}

var CivilityOptions = []string{"mr", "mrs", "ms"}

var targetFieldSpecs = []TargetFieldSpec{
	{Field: FieldCivility, Label: "Civilité", Kind: FieldKindSelection, Options: CivilityOptions},
	{Field: FieldFirstName, Label: "Prénom", Kind: FieldKindString},
	{Field: FieldLastName, Label: "Nom", Kind: FieldKindString},
	{Field: FieldCinNumber, Label: "Numéro CIN", Kind: FieldKindString},
	{Field: FieldMassarCode, Label: "Code Massar", Kind: FieldKindString},
	{Field: FieldBirthDate, Label: "Date de naissance", Kind: FieldKindDate},
	{Field: FieldBirthCity, Label: "Ville de naissance", Kind: FieldKindString},
	{Field: FieldBirthCountry, Label: "Pays de naissance", Kind: FieldKindString},
	{Field: FieldNationality, Label: "Nationalité", Kind: FieldKindString},
	{Field: FieldEmail, Label: "Email", Kind: FieldKindString},
	{Field: FieldPhone, Label: "Téléphone", Kind: FieldKindString},
	{Field: FieldAddress, Label: "Adresse", Kind: FieldKindString},
	{Field: FieldPostalCode, Label: "Code postal", Kind: FieldKindString},
	{Field: FieldCity, Label: "Ville", Kind: FieldKindString},
	{Field: FieldResidenceCountry, Label: "Pays de résidence", Kind: FieldKindString},

	{Field: FieldBacSeries, Label: "Série du bac", Kind: FieldKindString},
	{Field: FieldBacYear, Label: "Année du bac", Kind: FieldKindInt},
	{Field: FieldBacSchool, Label: "Lycée", Kind: FieldKindString},
	{Field: FieldBacCountry, Label: "Pays du bac", Kind: FieldKindString},

	{Field: FieldUniversity, Label: "Établissement", Kind: FieldKindString},
	{Field: FieldDegreeField, Label: "Filière", Kind: FieldKindString},
	{Field: FieldUniversityCity, Label: "Ville établissement", Kind: FieldKindString},
	{Field: FieldDegreeYear, Label: "Année d'obtention", Kind: FieldKindInt},

	{Field: FieldAvgYear1, Label: "Moyenne 1ère année", Kind: FieldKindFloat},
	{Field: FieldAvgYear2, Label: "Moyenne 2ème année", Kind: FieldKindFloat},
	{Field: FieldAvgYear3, Label: "Moyenne 3ème année", Kind: FieldKindFloat},
	{Field: FieldAvgSem1, Label: "Moyenne semestre 1", Kind: FieldKindFloat},
	{Field: FieldAvgSem2, Label: "Moyenne semestre 2", Kind: FieldKindFloat},
	{Field: FieldAvgSem3, Label: "Moyenne semestre 3", Kind: FieldKindFloat},
	{Field: FieldAvgSem4, Label: "Moyenne semestre 4", Kind: FieldKindFloat},
	{Field: FieldAvgSem5, Label: "Moyenne semestre 5", Kind: FieldKindFloat},
	{Field: FieldAvgSem6, Label: "Moyenne semestre 6", Kind: FieldKindFloat},

	{Field: FieldAcademicLevel, Label: "Niveau académique", Kind: FieldKindString},
	{Field: FieldAcademicScore, Label: "Note académique", Kind: FieldKindFloat},
	{Field: FieldExperienceScore, Label: "Note expérience", Kind: FieldKindFloat},
	{Field: FieldMotivationScore, Label: "Note motivation", Kind: FieldKindFloat},
	{Field: FieldEvaluationNote, Label: "Appréciation", Kind: FieldKindString},
	{Field: FieldNotes, Label: "Notes", Kind: FieldKindString},

	{Field: FieldPaymentConfirmed, Label: "Paiement confirmé", Kind: FieldKindBool},
	{Field: FieldDocumentsValidated, Label: "Documents validés", Kind: FieldKindBool},
	{Field: FieldIdentityVerified, Label: "Identité vérifiée", Kind: FieldKindBool},
	{Field: FieldAcademicValidated, Label: "Dossier académique validé", Kind: FieldKindBool},
	{Field: FieldInterviewScheduled, Label: "Entretien planifié", Kind: FieldKindBool},
	{Field: FieldInterviewDone, Label: "Entretien réalisé", Kind: FieldKindBool},

	{Field: FieldBacScan, Label: "Scan du bac", Kind: FieldKindAttachment},
	{Field: FieldBac2Transcript, Label: "Relevé bac+2", Kind: FieldKindAttachment},
	{Field: FieldBac3Transcript, Label: "Relevé bac+3", Kind: FieldKindAttachment},
	{Field: FieldPaymentProof, Label: "Justificatif de paiement", Kind: FieldKindAttachment},
	{Field: FieldSem1Transcript, Label: "Relevé semestre 1", Kind: FieldKindAttachment},
	{Field: FieldSem2Transcript, Label: "Relevé semestre 2", Kind: FieldKindAttachment},
	{Field: FieldSem3Transcript, Label: "Relevé semestre 3", Kind: FieldKindAttachment},
	{Field: FieldSem4Transcript, Label: "Relevé semestre 4", Kind: FieldKindAttachment},
	{Field: FieldSem5Transcript, Label: "Relevé semestre 5", Kind: FieldKindAttachment},
	{Field: FieldSem6Transcript, Label: "Relevé semestre 6", Kind: FieldKindAttachment},
}

var targetFieldIndex = func() map[TargetField]TargetFieldSpec {
	result := make(map[TargetField]TargetFieldSpec, len(targetFieldSpecs))
	for _, spec := range targetFieldSpecs {
		result[spec.Field] = spec
	}
	return result
}()

const customFieldPrefix = "x_"

var customFieldRe = regexp.MustCompile(`^x_[a-z][a-z0-9_]{0,62}$`)
var customNameCleanRe = regexp.MustCompile(`[^a-z0-9_]+`)

// CustomField пользовательское поле кандидата, хранится в custom_fields
func CustomField(name string) TargetField {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, customFieldPrefix)
	name = customNameCleanRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	return TargetField(customFieldPrefix + name)
}

func (f TargetField) IsEmpty() bool {
	return f == ""
}

func (f TargetField) IsCustom() bool {
	return strings.HasPrefix(string(f), customFieldPrefix)
}

func (f TargetField) CustomName() string {
	return strings.TrimPrefix(string(f), customFieldPrefix)
}

func (f TargetField) Spec() (TargetFieldSpec, bool) {
	if f.IsCustom() {
		if !customFieldRe.MatchString(string(f)) {
			return TargetFieldSpec{}, false
		}
		return TargetFieldSpec{
			Field:  f,
			Label:  f.CustomName() + " (personnalisé)",
			Kind:   FieldKindString,
			Custom: true,
		}, true
	}
	spec, ok := targetFieldIndex[f]
	return spec, ok
}

func (f TargetField) Kind() FieldKind {
	spec, ok := f.Spec()
	if !ok {
		return ""
	}
	return spec.Kind
}

func (f TargetField) IsAttachment() bool {
	return f.Kind() == FieldKindAttachment
}

// ParseTargetField проверяет, что поле существует в карточке кандидата или является корректным пользовательским полем
func ParseTargetField(value string) (TargetField, error) {
	field := TargetField(strings.TrimSpace(value))
	if field.IsEmpty() {
		return "", nil
	}
	if _, ok := field.Spec(); !ok {
		if field.IsCustom() {
			return "", errors.Errorf("некорректное имя пользовательского поля: %q", value)
		}
		return "", errors.Errorf("неизвестное поле кандидата: %q", value)
	}
	return field, nil
}

// KnownTargetFields список известных полей кандидата в порядке отображения
func KnownTargetFields() []TargetFieldSpec {
	result := make([]TargetFieldSpec, len(targetFieldSpecs))
	copy(result, targetFieldSpecs)
	return result
}
