package suggest

import (
	"sort"
	"strings"

	"admission-backend/models"
	mappingapimodels "admission-backend/models/api/mapping"
)

type keyword struct {
	text       string
	field      models.TargetField
	confidence int
}

// порядок важен: при равной уверенности выигрывает ключевое слово, стоящее раньше
var keywords = []keyword{
	// личные данные
	{"civilité", models.FieldCivility, 95},
	{"titre", models.FieldCivility, 90},
	{"prénom", models.FieldFirstName, 95},
	{"prenom", models.FieldFirstName, 95},
	{"nom", models.FieldLastName, 95},
	{"nom de famille", models.FieldLastName, 95},
	{"cin", models.FieldCinNumber, 95},
	{"carte nationale", models.FieldCinNumber, 90},
	{"pièce d'identité", models.FieldCinNumber, 85},
	{"massar", models.FieldMassarCode, 95},
	{"code massar", models.FieldMassarCode, 95},
	{"date de naissance", models.FieldBirthDate, 95},
	{"né le", models.FieldBirthDate, 90},
	{"naissance", models.FieldBirthDate, 85},
	{"ville de naissance", models.FieldBirthCity, 90},
	{"lieu de naissance", models.FieldBirthCity, 85},
	{"pays de naissance", models.FieldBirthCountry, 90},
	{"nationalité", models.FieldNationality, 90},
	{"email", models.FieldEmail, 95},
	{"e-mail", models.FieldEmail, 95},
	{"adresse e-mail", models.FieldEmail, 95},
	{"adresse électronique", models.FieldEmail, 90},
	{"courriel", models.FieldEmail, 90},
	{"téléphone", models.FieldPhone, 95},
	{"telephone", models.FieldPhone, 95},
	{"numéro de téléphone", models.FieldPhone, 95},
	{"portable", models.FieldPhone, 90},
	{"gsm", models.FieldPhone, 85},

	// адрес
	{"adresse", models.FieldAddress, 90},
	{"domicile", models.FieldAddress, 85},
	{"résidence", models.FieldAddress, 80},
	{"code postal", models.FieldPostalCode, 90},
	{"cp", models.FieldPostalCode, 85},
	{"ville", models.FieldCity, 80},
	{"localité", models.FieldCity, 75},
	{"pays de résidence", models.FieldResidenceCountry, 90},
	{"pays", models.FieldResidenceCountry, 70},

	// образование
	{"série", models.FieldBacSeries, 85},
	{"série du bac", models.FieldBacSeries, 95},
	{"série baccalauréat", models.FieldBacSeries, 95},
	{"filière bac", models.FieldBacSeries, 90},
	{"année du bac", models.FieldBacYear, 90},
	{"année d'obtention du bac", models.FieldBacYear, 95},
	{"année baccalauréat", models.FieldBacYear, 90},
	{"lycée", models.FieldBacSchool, 90},
	{"lycée d'obtention", models.FieldBacSchool, 95},
	{"établissement secondaire", models.FieldBacSchool, 85},
	{"pays du bac", models.FieldBacCountry, 85},
	{"pays d'obtention", models.FieldBacCountry, 90},
	{"établissement", models.FieldUniversity, 85},
	{"université", models.FieldUniversity, 90},
	{"école", models.FieldUniversity, 85},
	{"institut", models.FieldUniversity, 85},
	{"filière", models.FieldDegreeField, 90},
	{"spécialité", models.FieldDegreeField, 85},
	{"domaine", models.FieldDegreeField, 80},
	{"ville établissement", models.FieldUniversityCity, 85},
	{"ville université", models.FieldUniversityCity, 85},
	{"année d'obtention", models.FieldDegreeYear, 85},
	{"année de préparation", models.FieldDegreeYear, 80},

	// средние баллы
	{"moyenne 1", models.FieldAvgYear1, 90},
	{"moyenne première", models.FieldAvgYear1, 90},
	{"moyenne 1ère", models.FieldAvgYear1, 90},
	{"moyenne 2", models.FieldAvgYear2, 90},
	{"moyenne deuxième", models.FieldAvgYear2, 90},
	{"moyenne 2ème", models.FieldAvgYear2, 90},
	{"moyenne 3", models.FieldAvgYear3, 90},
	{"moyenne troisième", models.FieldAvgYear3, 90},
	{"moyenne 3ème", models.FieldAvgYear3, 90},
	{"semestre 1", models.FieldAvgSem1, 90},
	{"1er semestre", models.FieldAvgSem1, 90},
	{"semestre 2", models.FieldAvgSem2, 90},
	{"2ème semestre", models.FieldAvgSem2, 90},
	{"semestre 3", models.FieldAvgSem3, 90},
	{"3ème semestre", models.FieldAvgSem3, 90},
	{"semestre 4", models.FieldAvgSem4, 90},
	{"4ème semestre", models.FieldAvgSem4, 90},
	{"semestre 5", models.FieldAvgSem5, 90},
	{"5ème semestre", models.FieldAvgSem5, 90},
	{"semestre 6", models.FieldAvgSem6, 90},
	{"6ème semestre", models.FieldAvgSem6, 90},

	// прочее
	{"notes", models.FieldNotes, 80},
	{"remarques", models.FieldNotes, 75},
	{"commentaires", models.FieldNotes, 75},
	{"observations", models.FieldNotes, 70},

	// вложения
	{"bac", models.FieldBacScan, 80},
	{"scan du bac", models.FieldBacScan, 95},
	{"copie du bac", models.FieldBacScan, 95},
	{"diplôme du bac", models.FieldBacScan, 90},
	{"bac+2", models.FieldBac2Transcript, 90},
	{"bac + 2", models.FieldBac2Transcript, 90},
	{"bac+3", models.FieldBac3Transcript, 90},
	{"bac + 3", models.FieldBac3Transcript, 90},
	{"paiement", models.FieldPaymentProof, 85},
	{"justificatif de paiement", models.FieldPaymentProof, 95},
	{"reçu", models.FieldPaymentProof, 80},
	{"semestre 1", models.FieldSem1Transcript, 90},
	{"semestre 2", models.FieldSem2Transcript, 90},
	{"semestre 3", models.FieldSem3Transcript, 90},
	{"semestre 4", models.FieldSem4Transcript, 90},
	{"semestre 5", models.FieldSem5Transcript, 90},
	{"semestre 6", models.FieldSem6Transcript, 90},
}

// Rank список подсказок для текста вопроса: по одной на поле,
// по убыванию уверенности, при равенстве - в порядке таблицы ключевых слов.
// Для вопросов-вложений предлагаются только поля-вложения, для остальных - только обычные поля
func Rank(questionText string, attachment bool) []mappingapimodels.Suggestion {
	text := strings.ToLower(questionText)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	type ranked struct {
		mappingapimodels.Suggestion
		order int
	}
	best := map[models.TargetField]ranked{}
	for order, kw := range keywords {
		if kw.field.IsAttachment() != attachment {
			continue
		}
		if !strings.Contains(text, kw.text) {
			continue
		}
		if current, ok := best[kw.field]; ok && current.Confidence >= kw.confidence {
			continue
		}
		best[kw.field] = ranked{
			Suggestion: mappingapimodels.Suggestion{
				TargetField: kw.field,
				Confidence:  kw.confidence,
				Keyword:     kw.text,
			},
			order: order,
		}
	}

	list := make([]ranked, 0, len(best))
	for _, item := range best {
		list = append(list, item)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Confidence != list[j].Confidence {
			return list[i].Confidence > list[j].Confidence
		}
		return list[i].order < list[j].order
	})

	result := make([]mappingapimodels.Suggestion, 0, len(list))
	for _, item := range list {
		result = append(result, item.Suggestion)
	}
	return result
}

// Suggest лучшая подсказка, ok=false если совпадений нет
func Suggest(questionText string, attachment bool) (mappingapimodels.Suggestion, bool) {
	list := Rank(questionText, attachment)
	if len(list) == 0 {
		return mappingapimodels.Suggestion{}, false
	}
	return list[0], true
}
