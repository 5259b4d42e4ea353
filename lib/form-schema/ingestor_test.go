package formschema

import (
	"context"
	"testing"

	limesurveyclient "admission-backend/lib/limesurvey/client"
	"admission-backend/models"
	apimodels "admission-backend/models/api"
	limesurveyapimodels "admission-backend/models/api/limesurvey"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	limesurveyclient.Provider
	groups       []limesurveyapimodels.RawGroup
	questions    []limesurveyapimodels.RawQuestion
	questionsErr error
}

func (f fakeClient) ListGroups(ctx context.Context, conn limesurveyclient.Connection, surveyID string) ([]limesurveyapimodels.RawGroup, error) {
	return f.groups, nil
}

func (f fakeClient) ListQuestions(ctx context.Context, conn limesurveyclient.Connection, surveyID string) ([]limesurveyapimodels.RawQuestion, error) {
	return f.questions, f.questionsErr
}

func rawQuestion(qid, parent, gid, typ, code, text string, mandatory any) limesurveyapimodels.RawQuestion {
	return limesurveyapimodels.RawQuestion{
		QID:       apimodels.FlexString(qid),
		ParentQID: apimodels.FlexString(parent),
		GID:       apimodels.FlexString(gid),
		Type:      typ,
		Title:     code,
		Question:  text,
		Mandatory: mandatory,
	}
}

func TestSchemaIngestor(t *testing.T) {
	t.Run(`QuestionType check`, func(t *testing.T) {
		require.Equal(t, models.QuestionTypeText, QuestionType("S"))
		require.Equal(t, models.QuestionTypeNumeric, QuestionType("N"))
		require.Equal(t, models.QuestionTypeDate, QuestionType("D"))
		require.Equal(t, models.QuestionTypeChoice, QuestionType("!"))
		require.Equal(t, models.QuestionTypeMultiple, QuestionType("M"))
		require.Equal(t, models.QuestionTypeUpload, QuestionType("|"))
		require.Equal(t, models.QuestionTypeText, QuestionType("?"))
		require.Equal(t, models.QuestionTypeText, QuestionType(""))
	})

	t.Run(`IsRequired check`, func(t *testing.T) {
		require.True(t, IsRequired(true))
		require.True(t, IsRequired("Y"))
		require.True(t, IsRequired("y"))
		require.False(t, IsRequired("N"))
		require.False(t, IsRequired("yes"))
		require.False(t, IsRequired(nil))
		require.False(t, IsRequired(1))
	})

	t.Run(`CleanText check`, func(t *testing.T) {
		require.Equal(t, "Civilité", CleanText("<p><strong>Civilit&eacute;</strong></p>"))
		require.Equal(t, "Nom & prénom", CleanText("Nom&nbsp;&amp;\n  prénom"))
		require.Equal(t, "", CleanText("<br/>"))
	})

	t.Run(`Normalize check`, func(t *testing.T) {
		raw := limesurveyapimodels.RawSchema{
			Groups: []limesurveyapimodels.RawGroup{
				{GID: "1", GroupName: "Identité"},
				{GID: "2", GroupName: "Documents"},
			},
			Questions: []limesurveyapimodels.RawQuestion{
				rawQuestion("10", "0", "1", "L", "G01Q01", "<p>Civilité</p>", "Y"),
				rawQuestion("11", "0", "1", "S", "G01Q02", "Nom", true),
				rawQuestion("12", "0", "1", "S", "G01Q02", "Nom (doublon)", "N"),
				rawQuestion("13", "0", "2", "|", "G02Q01", "Scan du bac", "N"),
				rawQuestion("14", "0", "2", "M", "G02Q02", "Langues", nil),
				rawQuestion("15", "14", "2", "M", "SQ001", "Français", nil),
				rawQuestion("16", "0", "2", "S", "", "Sans code", nil),
			},
		}
		result := Normalize(raw)
		require.Len(t, result, 4)

		require.Equal(t, "G01Q01", result[0].Code)
		require.Equal(t, "Civilité", result[0].Text)
		require.Equal(t, models.QuestionTypeChoice, result[0].Type)
		require.Equal(t, "Identité", result[0].Group)
		require.True(t, result[0].Required)

		require.Equal(t, "Nom", result[1].Text)
		require.True(t, result[1].Required)

		require.True(t, result[2].IsAttachment())
		require.Equal(t, "Documents", result[2].Group)

		require.Equal(t, models.QuestionTypeMultiple, result[3].Type)
		require.Equal(t, map[string]any{"SQ001": "Français"}, result[3].Attributes["subquestions"])
	})

	t.Run(`Fetch error check`, func(t *testing.T) {
		ingestor := NewInstance(fakeClient{questionsErr: errors.New("timeout")})
		_, err := ingestor.Fetch(context.TODO(), limesurveyclient.Connection{}, "123")
		require.NotNil(t, err)
		var fetchErr SchemaFetchError
		require.ErrorAs(t, err, &fetchErr)
		require.Equal(t, "123", fetchErr.SurveyID)
	})

	t.Run(`Fetch check`, func(t *testing.T) {
		ingestor := NewInstance(fakeClient{
			groups: []limesurveyapimodels.RawGroup{{GID: "1", GroupName: "Identité"}},
			questions: []limesurveyapimodels.RawQuestion{
				rawQuestion("10", "0", "1", "L", "G01Q01", "Civilité", "Y"),
			},
		})
		result, err := ingestor.Fetch(context.TODO(), limesurveyclient.Connection{}, "123")
		require.Nil(t, err)
		require.Len(t, result, 1)
		require.Equal(t, "Identité", result[0].Group)
	})
}
