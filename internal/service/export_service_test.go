package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	signErr error
}

func (f *fakeStorage) PutObject(_ context.Context, key, _ string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = body
	return nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, expires time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://storage.test/" + key + "?expires=" + expires.String(), nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func TestExportService(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user, err := env.auth.Register(ctx, "Exporter", gofakeit.Email(), "pw")
	require.NoError(t, err)
	ex := env.exercise(t, "Squat")
	planID := env.plan(t, user.ID)
	env.addItems(t, user.ID, planID, ex, "A", "B")
	_, err = env.tracking.CreateWeightLog(ctx, user.ID, time.Now(), 80)
	require.NoError(t, err)

	fs := &fakeStorage{}
	svc := NewExportService(env.repos, fs, 10*time.Minute)

	res, err := svc.Export(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.ObjectKey, "exports/"+user.ID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(res.ObjectKey, ".json"))
	assert.Contains(t, res.URL, res.ObjectKey)

	var doc Export
	require.NoError(t, json.Unmarshal(fs.objects[res.ObjectKey], &doc))
	require.NotNil(t, doc.User)
	assert.Equal(t, user.ID, doc.User.ID)
	require.Len(t, doc.Plans, 1)
	require.Len(t, doc.Plans[0].Items, 2)
	assert.Equal(t, "A", doc.Plans[0].Items[0].Notes)
	assert.Len(t, doc.WeightLogs, 1)
	assert.NotContains(t, string(fs.objects[res.ObjectKey]), "passwordHash")
}

func TestExportService_Failures(t *testing.T) {
	ctx := context.Background()
	env := newDetachEnv(t)
	user, err := env.auth.Register(ctx, "", gofakeit.Email(), "pw")
	require.NoError(t, err)

	_, err = NewExportService(env.repos, nil, 0).Export(ctx, user.ID)
	assert.ErrorIs(t, err, ErrExportDisabled)

	boom := errors.New("bucket gone")
	_, err = NewExportService(env.repos, &fakeStorage{putErr: boom}, 0).Export(ctx, user.ID)
	assert.ErrorIs(t, err, boom)

	signErr := errors.New("no credentials")
	fs := &fakeStorage{signErr: signErr}
	_, err = NewExportService(env.repos, fs, 0).Export(ctx, user.ID)
	assert.ErrorIs(t, err, signErr)
	assert.Empty(t, fs.objects, "upload without a link is removed")
}
