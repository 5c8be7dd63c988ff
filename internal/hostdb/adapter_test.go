package hostdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/bloomcare/bloom-waitlist/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestAdapter(t *testing.T, timeout time.Duration) (*Adapter, *MockClient, *notify.Recorder) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := NewMockClient(ctrl)
	rec := notify.NewRecorder()
	return NewAdapter(client, rec, nil, AdapterConfig{Timeout: timeout, Missing: []string{"SUPABASE_URL"}}), client, rec
}

func titles(rec *notify.Recorder) []string {
	var out []string
	for _, n := range rec.Notifications() {
		out = append(out, n.Title)
	}
	return out
}

func TestCheckConfiguration_NotifiesOnceWithoutNetwork(t *testing.T) {
	adapter, client, rec := newTestAdapter(t, time.Second)
	client.EXPECT().Configured().Return(false).Times(2)

	ctx := context.Background()
	assert.False(t, adapter.CheckConfiguration(ctx))
	assert.False(t, adapter.CheckConfiguration(ctx))

	require.Len(t, rec.Notifications(), 1)
	n := rec.Notifications()[0]
	assert.Equal(t, notify.LevelWarn, n.Level)
	assert.Equal(t, TitleNotConfigured, n.Title)
	assert.Contains(t, n.Message, "SUPABASE_URL")
}

func TestCheckConfiguration_RequestNotifierHearsEveryTime(t *testing.T) {
	adapter, client, rec := newTestAdapter(t, time.Second)
	client.EXPECT().Configured().Return(false).Times(3)

	assert.False(t, adapter.CheckConfiguration(context.Background()))

	for i := 0; i < 2; i++ {
		request := notify.NewRecorder()
		ctx := notify.ContextWithNotifier(context.Background(), request)
		assert.False(t, adapter.CheckConfiguration(ctx))
		assert.Equal(t, []string{TitleNotConfigured}, titles(request))
	}

	assert.Len(t, rec.Notifications(), 1)
}

func TestCheckConfiguration_EmptySettingsClient(t *testing.T) {
	rec := notify.NewRecorder()
	adapter := NewAdapter(NewRESTClient(Settings{}, nil), rec, nil, AdapterConfig{Missing: Settings{}.Missing()})

	report := adapter.TestConnection(context.Background(), true)
	assert.Equal(t, StatusConfiguration, report.Status)
	assert.False(t, report.Configured)
	assert.Equal(t, []string{TitleNotConfigured}, titles(rec))
}

func TestTestConnection_SuccessAndMissingTableAreReachable(t *testing.T) {
	adapter, client, rec := newTestAdapter(t, time.Second)
	client.EXPECT().Configured().Return(true).AnyTimes()

	client.EXPECT().Select(gomock.Any(), "waitlist_interest", "id", 1).Return([]map[string]any{}, nil)
	report := adapter.TestConnection(context.Background(), false)
	assert.Equal(t, StatusReachable, report.Status)
	assert.True(t, report.TableExists)
	assert.True(t, report.OK())

	client.EXPECT().Select(gomock.Any(), "waitlist_interest", "id", 1).
		Return(nil, &Error{Code: CodeUndefinedTable, Message: "relation does not exist"})
	report = adapter.TestConnection(context.Background(), false)
	assert.Equal(t, StatusReachable, report.Status)
	assert.False(t, report.TableExists)

	assert.Empty(t, rec.Notifications())
}

func TestTestConnection_OtherErrorIsUnreachable(t *testing.T) {
	adapter, client, rec := newTestAdapter(t, time.Second)
	client.EXPECT().Configured().Return(true).AnyTimes()
	client.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &Error{Code: "PGRST301", Message: "JWT expired"})

	report := adapter.TestConnection(context.Background(), false)
	assert.Equal(t, StatusUnreachable, report.Status)
	assert.Equal(t, "PGRST301", report.Error.Code)
	assert.Equal(t, []string{TitleUnreachable}, titles(rec))
}

func TestTestConnection_TimeoutCancelsProbe(t *testing.T) {
	adapter, client, rec := newTestAdapter(t, 20*time.Millisecond)
	client.EXPECT().Configured().Return(true).AnyTimes()
	client.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ string, _ int) ([]map[string]any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	report := adapter.TestConnection(context.Background(), false)
	assert.Equal(t, StatusTimeout, report.Status)
	assert.True(t, IsTimeout(report.Error))
	assert.Equal(t, []string{TitleTimeout}, titles(rec))
}

func TestTestConnection_WriteProbeCleansUp(t *testing.T) {
	adapter, client, rec := newTestAdapter(t, time.Second)
	client.EXPECT().Configured().Return(true).AnyTimes()
	client.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	var probeEmail string
	client.EXPECT().Insert(gomock.Any(), "waitlist_interest", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, row map[string]any) error {
			probeEmail = row["email"].(string)
			return nil
		})
	client.EXPECT().DeleteWhere(gomock.Any(), "waitlist_interest", "email", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ string, value any) error {
			assert.Equal(t, probeEmail, value)
			return errors.New("cleanup blocked by policy")
		})

	report := adapter.TestConnection(context.Background(), true)
	assert.Equal(t, StatusReachable, report.Status)
	assert.True(t, report.WriteProbed)
	assert.True(t, report.Writable)
	assert.Contains(t, probeEmail, "@bloom.invalid")
	assert.Empty(t, rec.Notifications(), "cleanup failure stays silent")
}

func TestTestConnection_WriteProbePermission(t *testing.T) {
	adapter, client, rec := newTestAdapter(t, time.Second)
	client.EXPECT().Configured().Return(true).AnyTimes()
	client.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	client.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&Error{Code: CodeInsufficientPrivilege, Message: "permission denied for table waitlist_interest"})

	report := adapter.TestConnection(context.Background(), true)
	assert.Equal(t, StatusPermission, report.Status)
	assert.False(t, report.Writable)
	assert.Equal(t, []string{TitlePermission}, titles(rec))
}

func TestTableExists(t *testing.T) {
	adapter, client, _ := newTestAdapter(t, time.Second)
	client.EXPECT().Configured().Return(true).AnyTimes()

	client.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &Error{Code: CodeSchemaCacheMissingTable})
	ok, err := adapter.TableExists(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)

	client.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	ok, err = adapter.TableExists(context.Background())
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestInsertEntry_PermissionUsesRequestNotifier(t *testing.T) {
	adapter, client, adapterRec := newTestAdapter(t, time.Second)
	client.EXPECT().Configured().Return(true).AnyTimes()
	client.EXPECT().Insert(gomock.Any(), "waitlist_interest", gomock.Any()).
		Return(&Error{Status: 401, Message: "new row violates row-level security policy"})

	requestRec := notify.NewRecorder()
	ctx := notify.ContextWithNotifier(context.Background(), requestRec)

	err := adapter.InsertEntry(ctx, models.NewWaitlistEntry("c@example.com", nil, time.Now()))
	assert.True(t, IsPermissionDenied(err))
	assert.Equal(t, []string{TitlePermission}, titles(requestRec))
	assert.Equal(t, []string{TitlePermission}, titles(adapterRec))
}

func TestInsertEntry_Unconfigured(t *testing.T) {
	adapter, client, _ := newTestAdapter(t, time.Second)
	client.EXPECT().Configured().Return(false)

	err := adapter.InsertEntry(context.Background(), models.NewWaitlistEntry("b@example.com", nil, time.Now()))
	assert.True(t, IsNotConfigured(err))
}
