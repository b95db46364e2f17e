// Package lifecyclesvc - Test role transition tuần tự và apply quyết định tag.
package lifecyclesvc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"edu_admin/config"
	lifecyclemodels "edu_admin/internal/api/lifecycle/models"
	tagrulemodels "edu_admin/internal/api/tagrule/models"
	"edu_admin/internal/common"
	"edu_admin/internal/global"
)

// nopAudit nuốt audit event trong test
type nopAudit struct{}

func (nopAudit) Record(ctx context.Context, module, action, level string, runID string, payload map[string]interface{}) {
}

// memAssignments ghi nhận MarkApplied trong memory
type memAssignments struct {
	applied []tagrulemodels.TagDecision
}

func (m *memAssignments) MarkApplied(ctx context.Context, decision *tagrulemodels.TagDecision) error {
	m.applied = append(m.applied, *decision)
	return nil
}

// fakeChatClient ghi lại thứ tự lời gọi, fail theo chỉ định
type fakeChatClient struct {
	calls   []string
	failAt  string // roleID sẽ fail
	failErr error
}

func (f *fakeChatClient) AddRole(ctx context.Context, accountID, roleID string) error {
	f.calls = append(f.calls, "add:"+roleID)
	if roleID == f.failAt {
		return f.failErr
	}
	return nil
}

func (f *fakeChatClient) RemoveRole(ctx context.Context, accountID, roleID string) error {
	f.calls = append(f.calls, "remove:"+roleID)
	if roleID == f.failAt {
		return f.failErr
	}
	return nil
}

// fakeCrmClient đếm lời gọi tag, fail N lần đầu nếu chỉ định
type fakeCrmClient struct {
	addCalls    int
	removeCalls int
	failFirst   int
	failWith    error
}

func (f *fakeCrmClient) AddTag(ctx context.Context, email, tagID string) error {
	f.addCalls++
	if f.addCalls <= f.failFirst {
		return f.failWith
	}
	return nil
}

func (f *fakeCrmClient) RemoveTag(ctx context.Context, email, tagID string) error {
	f.removeCalls++
	return nil
}

func fastConfig(t *testing.T) {
	t.Helper()
	old := global.ServerConfig
	global.ServerConfig = &config.Configuration{
		ExternalMaxRetries:  2,
		ExternalBackoffMs:   1,
		RoleStepDelayMs:     1,
		ActuatorConcurrency: 2,
	}
	t.Cleanup(func() { global.ServerConfig = old })
}

func newTestActuator(crm CrmTagClient, chat ChatRoleClient, store *memAssignments) *Actuator {
	if store == nil {
		store = &memAssignments{}
	}
	return &Actuator{crm: crm, chat: chat, assignments: store, audit: nopAudit{}}
}

func TestRunRoleTransition_StepsInOrder(t *testing.T) {
	fastConfig(t)
	chat := &fakeChatClient{}
	actuator := newTestActuator(nil, chat, nil)

	transition := lifecyclemodels.InactiveTransition("role-ativo", "role-comecou", "role-inativo")
	result := actuator.RunRoleTransition(context.Background(), "acc-1", transition)

	assert.True(t, result.Succeeded, "transition phải thành công khi mọi bước ok")
	assert.Equal(t, []string{"remove:role-ativo", "remove:role-comecou", "add:role-inativo"}, chat.calls,
		"các bước phải chạy đúng thứ tự khai báo")
	assert.Empty(t, result.FailedStep)
}

func TestRunRoleTransition_FailedStepStopsSequence(t *testing.T) {
	fastConfig(t)
	chat := &fakeChatClient{
		failAt: "role-comecou",
		failErr: common.NewError(common.ErrCodeExternalPermanent,
			"role không tồn tại", common.StatusNotFound, nil),
	}
	actuator := newTestActuator(nil, chat, nil)

	transition := lifecyclemodels.InactiveTransition("role-ativo", "role-comecou", "role-inativo")
	result := actuator.RunRoleTransition(context.Background(), "acc-1", transition)

	assert.False(t, result.Succeeded)
	assert.Equal(t, "remove:Começou", result.FailedStep, "kết quả phải nêu đích danh bước fail")

	// Bước 3 không bao giờ được attempt
	for _, call := range chat.calls {
		assert.NotEqual(t, "add:role-inativo", call, "bước sau bước fail không được attempt")
	}
	assert.Len(t, result.Steps, 3, "kết quả composite vẫn liệt kê đủ các bước")
	assert.False(t, result.Steps[2].Attempted, "bước 3 phải được đánh dấu không attempt")
}

func TestRunRoleTransition_PermanentErrorNotRetried(t *testing.T) {
	fastConfig(t)
	chat := &fakeChatClient{
		failAt: "role-ativo",
		failErr: common.NewError(common.ErrCodeExternalPermanent,
			"account không tồn tại", common.StatusNotFound, nil),
	}
	actuator := newTestActuator(nil, chat, nil)

	transition := lifecyclemodels.ReactivateTransition("role-ativo", "role-inativo")
	// Bước 1 remove inativo ok, bước 2 add ativo fail permanent
	actuator.RunRoleTransition(context.Background(), "acc-1", transition)

	count := 0
	for _, call := range chat.calls {
		if call == "add:role-ativo" {
			count++
		}
	}
	assert.Equal(t, 1, count, "lỗi permanent không được retry")
}

func TestApplyDecisions_TransientRetriedThenApplied(t *testing.T) {
	fastConfig(t)
	crm := &fakeCrmClient{
		failFirst: 1,
		failWith:  common.NewTransientError(errors.New("tạm thời mất kết nối"), 503),
	}
	store := &memAssignments{}
	actuator := newTestActuator(crm, nil, store)

	decisions := []tagrulemodels.TagDecision{
		{Email: "a@example.com", TagID: "tag-1", Outcome: tagrulemodels.DecisionAssign},
	}
	counts := actuator.ApplyDecisions(context.Background(), decisions, "run-1")

	assert.Equal(t, 1, counts.Applied, "lỗi transient phải được retry rồi thành công")
	assert.Equal(t, 2, crm.addCalls, "1 lần fail + 1 lần retry thành công")
	assert.Len(t, store.applied, 1, "trạng thái assignment chỉ persist sau khi side effect thành công")
}

func TestApplyDecisions_FailureCountedNotPersisted(t *testing.T) {
	fastConfig(t)
	crm := &fakeCrmClient{
		failFirst: 100, // fail mãi
		failWith: common.NewError(common.ErrCodeExternalPermanent,
			"contact không tồn tại", common.StatusNotFound, nil),
	}
	store := &memAssignments{}
	actuator := newTestActuator(crm, nil, store)

	decisions := []tagrulemodels.TagDecision{
		{Email: "a@example.com", TagID: "tag-1", Outcome: tagrulemodels.DecisionAssign},
		{Email: "b@example.com", TagID: "tag-1", Outcome: tagrulemodels.DecisionRevoke},
	}
	counts := actuator.ApplyDecisions(context.Background(), decisions, "run-1")

	assert.Equal(t, 1, counts.Failed, "assign fail phải được đếm")
	assert.Equal(t, 1, counts.Applied, "revoke của account khác vẫn chạy")
	for _, applied := range store.applied {
		assert.NotEqual(t, tagrulemodels.DecisionAssign, applied.Outcome,
			"quyết định fail không được persist trạng thái")
	}
}
