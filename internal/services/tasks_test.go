package services_test

import (
	"testing"
	"time"

	"github.com/diewo77/go-lawfirm/internal/apperr"
	"github.com/diewo77/go-lawfirm/internal/models"
	"github.com/diewo77/go-lawfirm/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskCompletionIsStampedOnce(t *testing.T) {
	e := newEnv(t)
	ctx, u := e.staff(t, models.RoleAssociate)
	task, err := e.svc.Tasks.Create(ctx, services.TaskInput{Title: "Bilirkişi raporuna itiraz", AssignedToID: &u.ID})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusToDo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Nil(t, task.CompletedAt)

	done := e.clock.Now()
	_, err = e.svc.Tasks.UpdateStatus(ctx, task.ID, models.TaskStatusDone)
	require.NoError(t, err)

	e.clock.Advance(2 * time.Hour)
	again, err := e.svc.Tasks.UpdateStatus(ctx, task.ID, models.TaskStatusDone)
	require.NoError(t, err)
	require.NotNil(t, again.CompletedAt)
	assert.True(t, again.CompletedAt.Equal(done))

	got, err := e.svc.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(done))
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, u.ID, got.AssignedTo.ID)

	_, err = e.svc.Tasks.UpdateStatus(ctx, task.ID, "Blocked")
	v, _ := apperr.Violations(err)
	assert.Equal(t, "invalid_choice", v["status"])

	assert.Len(t, e.auditRows(t, models.ActionUpdate), 2)
}

func TestTaskUpdateKeepsStatusAndPriority(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAssociate)
	task, err := e.svc.Tasks.Create(ctx, services.TaskInput{Title: "Dilekçe", Priority: models.PriorityHigh})
	require.NoError(t, err)
	done := e.clock.Now()
	_, err = e.svc.Tasks.UpdateStatus(ctx, task.ID, models.TaskStatusDone)
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	got, err := e.svc.Tasks.Update(ctx, task.ID, services.TaskInput{Title: "Dilekçe (son hali)"})
	require.NoError(t, err)
	assert.Equal(t, "Dilekçe (son hali)", got.Title)
	assert.Equal(t, models.TaskStatusDone, got.Status)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(done))

	stored, err := e.svc.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, stored.Status)
}

func TestTaskValidation(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAssociate)
	_, err := e.svc.Tasks.Create(ctx, services.TaskInput{Priority: "Urgent", MatterID: ptr("missing"), AssignedToID: ptr("")})
	v, ok := apperr.Violations(err)
	require.True(t, ok)
	assert.Equal(t, "required", v["title"])
	assert.Equal(t, "invalid_choice", v["priority"])
	assert.Equal(t, "not_found", v["matter_id"])
	_, hasAssignee := v["assigned_to_id"]
	assert.False(t, hasAssignee, "empty ids mean unassigned")
}

func TestTaskBoard(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RolePartner)
	c := e.client(t, ctx, "A", "a@example.com")
	m := e.matter(t, ctx, c.ID, "2024/5", 0)
	for _, in := range []services.TaskInput{
		{Title: "one", MatterID: &m.ID},
		{Title: "two", Status: models.TaskStatusReview, MatterID: &m.ID},
		{Title: "three", Status: models.TaskStatusReview},
	} {
		_, err := e.svc.Tasks.Create(ctx, in)
		require.NoError(t, err)
	}

	cols, err := e.svc.Tasks.Board(ctx, services.TaskFilter{Status: models.TaskStatusDone})
	require.NoError(t, err)
	require.Len(t, cols, 4)
	for i, st := range models.TaskStatuses {
		assert.Equal(t, st, cols[i].Status)
	}
	assert.Len(t, cols[0].Tasks, 1)
	assert.Len(t, cols[2].Tasks, 2)
	assert.NotNil(t, cols[1].Tasks)
	assert.Empty(t, cols[3].Tasks)

	cols, err = e.svc.Tasks.Board(ctx, services.TaskFilter{MatterID: m.ID})
	require.NoError(t, err)
	assert.Len(t, cols[2].Tasks, 1)

	list, err := e.svc.Tasks.List(ctx, services.TaskFilter{Status: models.TaskStatusReview})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestTaskSurvivesMatterDeletion(t *testing.T) {
	e := newEnv(t)
	ctx, _ := e.staff(t, models.RoleAdmin)
	c := e.client(t, ctx, "A", "a@example.com")
	m := e.matter(t, ctx, c.ID, "2024/6", 0)
	task, err := e.svc.Tasks.Create(ctx, services.TaskInput{Title: "x", MatterID: &m.ID})
	require.NoError(t, err)

	require.NoError(t, e.svc.Matters.Delete(ctx, m.ID))
	got, err := e.svc.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.MatterID)
}

func TestApplyTemplate(t *testing.T) {
	e := newEnv(t)
	ctx, u := e.staff(t, models.RolePartner)
	c := e.client(t, ctx, "A", "a@example.com")
	m := e.matter(t, ctx, c.ID, "2024/7", 0)

	tpl, err := e.svc.Tasks.CreateTemplate(ctx, services.TaskTemplateInput{
		Name: "Boşanma davası", Category: "Aile", IsActive: true,
		Steps: []models.TemplateStep{
			{Title: "Dava dilekçesi", Priority: models.PriorityHigh, DueInDays: 3},
			{Title: "Tanık listesi"},
		},
	})
	require.NoError(t, err)

	tasks, err := e.svc.Tasks.ApplyTemplate(ctx, tpl.ID, &m.ID, &u.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, models.PriorityHigh, tasks[0].Priority)
	require.NotNil(t, tasks[0].DueDate)
	assert.True(t, tasks[0].DueDate.Equal(e.clock.Now().AddDate(0, 0, 3)))
	assert.Equal(t, models.PriorityMedium, tasks[1].Priority)
	assert.Nil(t, tasks[1].DueDate)
	for _, task := range tasks {
		assert.Equal(t, m.ID, *task.MatterID)
		assert.Equal(t, u.ID, *task.AssignedToID)
		assert.Equal(t, models.TaskStatusToDo, task.Status)
	}

	var created int64
	require.NoError(t, e.db.Model(&models.AuditLog{}).Where("action = ? AND entity_type = ?", models.ActionCreate, "Task").Count(&created).Error)
	assert.EqualValues(t, 2, created)

	inactive, err := e.svc.Tasks.CreateTemplate(ctx, services.TaskTemplateInput{
		Name: "Eski", Steps: []models.TemplateStep{{Title: "x"}},
	})
	require.NoError(t, err)
	_, err = e.svc.Tasks.ApplyTemplate(ctx, inactive.ID, nil, nil)
	v, _ := apperr.Violations(err)
	assert.Equal(t, "inactive", v["template_id"])

	active, err := e.svc.Tasks.Templates(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, tpl.ID, active[0].ID)

	_, err = e.svc.Tasks.ApplyTemplate(ctx, tpl.ID, ptr("missing"), nil)
	v, _ = apperr.Violations(err)
	assert.Equal(t, "not_found", v["matter_id"])

	require.NoError(t, e.svc.Tasks.DeleteTemplate(ctx, tpl.ID))
	got, err := e.svc.Tasks.Get(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got.TemplateID)
}
