package suggest

import (
	"testing"

	"admission-backend/models"

	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	t.Run(`civility check`, func(t *testing.T) {
		result, ok := Suggest("Civilité", false)
		require.True(t, ok)
		require.Equal(t, models.FieldCivility, result.TargetField)
		require.GreaterOrEqual(t, result.Confidence, models.ConfidenceAutoValidate)
	})

	t.Run(`tie check`, func(t *testing.T) {
		// "prénom" содержит "nom": равная уверенность, выигрывает первое слово таблицы
		list := Rank("Prénom", false)
		require.Len(t, list, 2)
		require.Equal(t, models.FieldFirstName, list[0].TargetField)
		require.Equal(t, models.FieldLastName, list[1].TargetField)
		require.Equal(t, list[0].Confidence, list[1].Confidence)
	})

	t.Run(`ranking check`, func(t *testing.T) {
		list := Rank("Ville de naissance", false)
		require.GreaterOrEqual(t, len(list), 3)
		require.Equal(t, models.FieldBirthCity, list[0].TargetField)
		require.Equal(t, 90, list[0].Confidence)
		require.Equal(t, models.FieldBirthDate, list[1].TargetField)
		require.Equal(t, models.FieldCity, list[2].TargetField)
	})

	t.Run(`one suggestion per field check`, func(t *testing.T) {
		list := Rank("Adresse e-mail", false)
		require.Equal(t, models.FieldEmail, list[0].TargetField)
		require.Equal(t, "e-mail", list[0].Keyword)
		seen := map[models.TargetField]bool{}
		for _, item := range list {
			require.False(t, seen[item.TargetField])
			seen[item.TargetField] = true
		}
	})

	t.Run(`deterministic check`, func(t *testing.T) {
		first := Rank("Téléphone portable et adresse du domicile", false)
		for i := 0; i < 20; i++ {
			require.Equal(t, first, Rank("Téléphone portable et adresse du domicile", false))
		}
	})

	t.Run(`attachment check`, func(t *testing.T) {
		result, ok := Suggest("Scan du bac", true)
		require.True(t, ok)
		require.Equal(t, models.FieldBacScan, result.TargetField)
		require.Equal(t, 95, result.Confidence)

		result, ok = Suggest("Relevé de notes semestre 1", true)
		require.True(t, ok)
		require.Equal(t, models.FieldSem1Transcript, result.TargetField)

		result, ok = Suggest("Moyenne semestre 1", false)
		require.True(t, ok)
		require.Equal(t, models.FieldAvgSem1, result.TargetField)
	})

	t.Run(`no match check`, func(t *testing.T) {
		_, ok := Suggest("Quel est votre sport préféré ?", false)
		require.False(t, ok)
		require.Nil(t, Rank("", false))
	})
}
