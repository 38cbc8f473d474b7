package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubSettingsRepo struct {
	rows map[string]string
}

func newStubSettingsRepo() *stubSettingsRepo {
	return &stubSettingsRepo{rows: map[string]string{}}
}

func (r *stubSettingsRepo) List(ctx context.Context) ([]models.Setting, error) {
	var out []models.Setting
	for k, v := range r.rows {
		out = append(out, models.Setting{Key: k, Value: v})
	}
	return out, nil
}

func (r *stubSettingsRepo) Upsert(ctx context.Context, setting *models.Setting) error {
	r.rows[setting.Key] = setting.Value
	return nil
}

func (r *stubSettingsRepo) Delete(ctx context.Context, key string) (bool, error) {
	if _, ok := r.rows[key]; !ok {
		return false, nil
	}
	delete(r.rows, key)
	return true, nil
}

func newSettingsFixture(t *testing.T) (Service, *stubSettingsRepo) {
	t.Helper()
	repo := newStubSettingsRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestSetAndGetAll(t *testing.T) {
	svc, _ := newSettingsFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "store.banner_text", "Summer sale"))
	require.NoError(t, svc.Set(ctx, "store.support_email", "help@example.com"))
	require.NoError(t, svc.Set(ctx, "store.banner_text", "Fall sale"))

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"store.banner_text":   "Fall sale",
		"store.support_email": "help@example.com",
	}, all)
}

func TestSetNormalizesAndValidatesKey(t *testing.T) {
	svc, repo := newSettingsFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "  Store.Banner_Text ", "hi"))
	assert.Equal(t, "hi", repo.rows["store.banner_text"])

	cases := []string{"", "spaces in key", "trailing.", ".leading", "UPPER ONLY!"}
	for _, bad := range cases {
		err := svc.Set(ctx, bad, "x")
		var appErr *pkgerrors.Error
		require.ErrorAs(t, err, &appErr, "key %q", bad)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	}
}

func TestDeleteSetting(t *testing.T) {
	svc, _ := newSettingsFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "store.banner_text", "hi"))
	require.NoError(t, svc.Delete(ctx, "STORE.banner_text"))

	err := svc.Delete(ctx, "store.banner_text")
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
