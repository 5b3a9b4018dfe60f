package services_test

import (
	"testing"

	"medforms/backend/models"
	"medforms/backend/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitFormKeepsOnlySuppliedAnswers(t *testing.T) {
	db := newTestDB(t)
	forms := services.NewFormService(db)
	submissions := services.NewSubmissionService(db)
	manager := createManager(t, db, "manager@example.com")
	patient := createPatient(t, db, "patient@example.com", "Петров П.П.")

	form, err := forms.CreateForm("Биохимия", manager.ID)
	require.NoError(t, err)

	var ids []uint
	for _, p := range []string{"Гемоглобин", "Глюкоза", "Холестерин"} {
		q, err := forms.AppendQuestion(form.ID, manager.ID, services.QuestionInput{Question: p})
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}

	// два ответа на три вопроса — не ошибка и без автозаполнения
	sub, err := submissions.SubmitForm(form.ID, patient.ID, []services.AnswerInput{
		{FieldID: ids[0], Answer: "140"},
		{FieldID: ids[2], Answer: "5.2"},
	})
	require.NoError(t, err)

	var count int64
	db.Model(&models.FormAnswer{}).Where("submission_id = ?", sub.ID).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestSubmitWithoutAssignmentAllowed(t *testing.T) {
	db := newTestDB(t)
	forms := services.NewFormService(db)
	submissions := services.NewSubmissionService(db)
	manager := createManager(t, db, "manager@example.com")
	patient := createPatient(t, db, "patient@example.com", "Петров П.П.")

	form, err := forms.CreateForm("Анкета", manager.ID)
	require.NoError(t, err)
	q, err := forms.AppendQuestion(form.ID, manager.ID, services.QuestionInput{Question: "Пульс"})
	require.NoError(t, err)

	_, err = submissions.SubmitForm(form.ID, patient.ID, []services.AnswerInput{
		{FieldID: q.ID, Answer: "72"},
	})
	assert.NoError(t, err)
}

func TestSubmitFormMissingTargets(t *testing.T) {
	db := newTestDB(t)
	forms := services.NewFormService(db)
	submissions := services.NewSubmissionService(db)
	manager := createManager(t, db, "manager@example.com")
	patient := createPatient(t, db, "patient@example.com", "Петров П.П.")

	form, err := forms.CreateForm("Анкета", manager.ID)
	require.NoError(t, err)

	_, err = submissions.SubmitForm(form.ID+100, patient.ID, nil)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = submissions.SubmitForm(form.ID, patient.ID+100, nil)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRecordAnswerRejectsForeignQuestion(t *testing.T) {
	db := newTestDB(t)
	forms := services.NewFormService(db)
	submissions := services.NewSubmissionService(db)
	manager := createManager(t, db, "manager@example.com")
	patient := createPatient(t, db, "patient@example.com", "Петров П.П.")

	formA, err := forms.CreateForm("Форма А", manager.ID)
	require.NoError(t, err)
	formB, err := forms.CreateForm("Форма Б", manager.ID)
	require.NoError(t, err)

	qA, err := forms.AppendQuestion(formA.ID, manager.ID, services.QuestionInput{Question: "Пульс"})
	require.NoError(t, err)
	qB, err := forms.AppendQuestion(formB.ID, manager.ID, services.QuestionInput{Question: "Вес"})
	require.NoError(t, err)

	sub, err := submissions.CreateSubmission(formA.ID, patient.ID)
	require.NoError(t, err)

	_, err = submissions.RecordAnswer(sub.ID, qB.ID, "80")
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = submissions.RecordAnswer(sub.ID, qA.ID+1000, "80")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestSubmitFormRollsBackOnForeignQuestion(t *testing.T) {
	db := newTestDB(t)
	forms := services.NewFormService(db)
	submissions := services.NewSubmissionService(db)
	manager := createManager(t, db, "manager@example.com")
	patient := createPatient(t, db, "patient@example.com", "Петров П.П.")

	formA, err := forms.CreateForm("Форма А", manager.ID)
	require.NoError(t, err)
	formB, err := forms.CreateForm("Форма Б", manager.ID)
	require.NoError(t, err)

	qA, err := forms.AppendQuestion(formA.ID, manager.ID, services.QuestionInput{Question: "Пульс"})
	require.NoError(t, err)
	qB, err := forms.AppendQuestion(formB.ID, manager.ID, services.QuestionInput{Question: "Вес"})
	require.NoError(t, err)

	_, err = submissions.SubmitForm(formA.ID, patient.ID, []services.AnswerInput{
		{FieldID: qA.ID, Answer: "72"},
		{FieldID: qB.ID, Answer: "80"},
	})
	assert.ErrorIs(t, err, services.ErrConflict)

	var subs, answers int64
	db.Model(&models.FormSubmission{}).Count(&subs)
	db.Model(&models.FormAnswer{}).Count(&answers)
	assert.EqualValues(t, 0, subs)
	assert.EqualValues(t, 0, answers)
}

func TestEffectiveRangeUsesQuestionDefault(t *testing.T) {
	db := newTestDB(t)
	forms := services.NewFormService(db)
	submissions := services.NewSubmissionService(db)
	manager := createManager(t, db, "manager@example.com")
	patient := createPatient(t, db, "patient@example.com", "Петров П.П.")

	form, err := forms.CreateForm("Анкета", manager.ID)
	require.NoError(t, err)
	q, err := forms.AppendQuestion(form.ID, manager.ID, services.QuestionInput{
		Question: "Гемоглобин",
		RefMin:   intPtr(10),
		RefMax:   intPtr(20),
	})
	require.NoError(t, err)

	_, err = submissions.SubmitForm(form.ID, patient.ID, []services.AnswerInput{
		{FieldID: q.ID, Answer: "15"},
	})
	require.NoError(t, err)

	result, err := submissions.ListSubmissions(form.ID)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Len(t, result[0].Answers, 1)

	answer := result[0].Answers[0]
	assert.Equal(t, "Петров П.П.", result[0].FIO)
	assert.Equal(t, "15", answer.Answer)
	assert.Equal(t, 10, *answer.RefMin)
	assert.Equal(t, 20, *answer.RefMax)
}

func TestEffectiveRangeUsesOverride(t *testing.T) {
	db := newTestDB(t)
	forms := services.NewFormService(db)
	submissions := services.NewSubmissionService(db)
	manager := createManager(t, db, "manager@example.com")
	patient := createPatient(t, db, "patient@example.com", "Петров П.П.")

	form, err := forms.CreateForm("Анкета", manager.ID)
	require.NoError(t, err)
	q, err := forms.AppendQuestion(form.ID, manager.ID, services.QuestionInput{
		Question: "Гемоглобин",
		RefMin:   intPtr(10),
		RefMax:   intPtr(20),
	})
	require.NoError(t, err)

	require.NoError(t, forms.AssignForm(form.ID, patient.ID, []services.QuestionRef{
		{ID: q.ID, RefMin: intPtr(12), RefMax: intPtr(18)},
	}))

	_, err = submissions.SubmitForm(form.ID, patient.ID, []services.AnswerInput{
		{FieldID: q.ID, Answer: "13"},
	})
	require.NoError(t, err)

	result, err := submissions.ListSubmissions(form.ID)
	require.NoError(t, err)
	require.Len(t, result, 1)

	answer := result[0].Answers[0]
	assert.Equal(t, 12, *answer.RefMin)
	assert.Equal(t, 18, *answer.RefMax)
}

// Индивидуальная граница только с нижним концом: верхний конец
// берётся из вопроса, а не обнуляется.
func TestEffectiveRangePerBoundFallback(t *testing.T) {
	db := newTestDB(t)
	forms := services.NewFormService(db)
	submissions := services.NewSubmissionService(db)
	manager := createManager(t, db, "manager@example.com")
	patient := createPatient(t, db, "patient@example.com", "Петров П.П.")

	form, err := forms.CreateForm("Анкета", manager.ID)
	require.NoError(t, err)
	q, err := forms.AppendQuestion(form.ID, manager.ID, services.QuestionInput{
		Question: "Гемоглобин",
		RefMin:   intPtr(5),
		RefMax:   intPtr(15),
	})
	require.NoError(t, err)

	require.NoError(t, forms.AssignForm(form.ID, patient.ID, []services.QuestionRef{
		{ID: q.ID, RefMin: intPtr(7)},
	}))

	_, err = submissions.SubmitForm(form.ID, patient.ID, []services.AnswerInput{
		{FieldID: q.ID, Answer: "10"},
	})
	require.NoError(t, err)

	result, err := submissions.ListSubmissions(form.ID)
	require.NoError(t, err)
	require.Len(t, result, 1)

	answer := result[0].Answers[0]
	assert.Equal(t, 7, *answer.RefMin)
	require.NotNil(t, answer.RefMax)
	assert.Equal(t, 15, *answer.RefMax)
}

func TestOverrideDoesNotLeakToOtherUsers(t *testing.T) {
	db := newTestDB(t)
	forms := services.NewFormService(db)
	submissions := services.NewSubmissionService(db)
	manager := createManager(t, db, "manager@example.com")
	first := createPatient(t, db, "first@example.com", "Первый")
	second := createPatient(t, db, "second@example.com", "Второй")

	form, err := forms.CreateForm("Анкета", manager.ID)
	require.NoError(t, err)
	q, err := forms.AppendQuestion(form.ID, manager.ID, services.QuestionInput{
		Question: "Гемоглобин",
		RefMin:   intPtr(10),
		RefMax:   intPtr(20),
	})
	require.NoError(t, err)

	require.NoError(t, forms.AssignForm(form.ID, first.ID, []services.QuestionRef{
		{ID: q.ID, RefMin: intPtr(12), RefMax: intPtr(18)},
	}))

	for _, userID := range []uint{first.ID, second.ID} {
		_, err = submissions.SubmitForm(form.ID, userID, []services.AnswerInput{
			{FieldID: q.ID, Answer: "15"},
		})
		require.NoError(t, err)
	}

	result, err := submissions.ListSubmissions(form.ID)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, 12, *result[0].Answers[0].RefMin)
	assert.Equal(t, 10, *result[1].Answers[0].RefMin)
	assert.Equal(t, 20, *result[1].Answers[0].RefMax)
}

func TestTwoSubmissionsYieldTwoGroups(t *testing.T) {
	db := newTestDB(t)
	forms := services.NewFormService(db)
	submissions := services.NewSubmissionService(db)
	manager := createManager(t, db, "manager@example.com")
	patient := createPatient(t, db, "patient@example.com", "Петров П.П.")

	form, err := forms.CreateForm("Анкета", manager.ID)
	require.NoError(t, err)
	q, err := forms.AppendQuestion(form.ID, manager.ID, services.QuestionInput{Question: "Пульс"})
	require.NoError(t, err)

	_, err = submissions.SubmitForm(form.ID, patient.ID, []services.AnswerInput{
		{FieldID: q.ID, Answer: "70"},
	})
	require.NoError(t, err)
	_, err = submissions.SubmitForm(form.ID, patient.ID, []services.AnswerInput{
		{FieldID: q.ID, Answer: "85"},
	})
	require.NoError(t, err)

	result, err := submissions.ListSubmissions(form.ID)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, "Петров П.П.", result[0].FIO)
	assert.Equal(t, "Петров П.П.", result[1].FIO)
	require.Len(t, result[0].Answers, 1)
	require.Len(t, result[1].Answers, 1)
	assert.Equal(t, "70", result[0].Answers[0].Answer)
	assert.Equal(t, "85", result[1].Answers[0].Answer)
}

func TestListSubmissionsMissingForm(t *testing.T) {
	db := newTestDB(t)
	submissions := services.NewSubmissionService(db)

	_, err := submissions.ListSubmissions(12345)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
