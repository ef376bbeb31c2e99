package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/jhoicas/concesionaria-api/internal/application/export"
	"github.com/jhoicas/concesionaria-api/pkg/config"
)

// ─────────────────────────────────────────────────────────────────────────────
// FileSink
// ─────────────────────────────────────────────────────────────────────────────

func TestFileSink_ConservaLosMasRecientes(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(filepath.Join(dir, "respaldos"), 3)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "respaldos", "leeme.txt"), []byte("x"), 0o600))

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var names []string
	for i := 0; i < 5; i++ {
		name := app.BackupName(t0.Add(time.Duration(i) * 5 * time.Minute))
		names = append(names, name)
		require.NoError(t, sink.Put(context.Background(), name, []byte(`{}`)))
	}

	entries, err := os.ReadDir(filepath.Join(dir, "respaldos"))
	require.NoError(t, err)
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	assert.ElementsMatch(t, append([]string{"leeme.txt"}, names[2:]...), got)
}

func TestFileSink_NombreConRuta(t *testing.T) {
	sink, err := NewFileSink(t.TempDir(), 10)
	require.NoError(t, err)

	assert.Error(t, sink.Put(context.Background(), "../respaldo_x.json", []byte(`{}`)))
}

// ─────────────────────────────────────────────────────────────────────────────
// S3Sink
// ─────────────────────────────────────────────────────────────────────────────

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Sink_SubeYPoda(t *testing.T) {
	api := &fakeS3{objects: map[string][]byte{"otros/respaldo_viejo.json": nil}}
	sink := NewS3Sink(api, "bucket", "respaldos/", 2)

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, sink.Put(context.Background(), app.BackupName(t0.Add(time.Duration(i)*time.Minute)), []byte(`{"n":1}`)))
	}

	var keys []string
	for k := range api.objects {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{
		"otros/respaldo_viejo.json",
		"respaldos/" + app.BackupName(t0.Add(2*time.Minute)),
		"respaldos/" + app.BackupName(t0.Add(3*time.Minute)),
	}, keys)
	assert.Equal(t, []byte(`{"n":1}`), api.objects["respaldos/"+app.BackupName(t0.Add(3*time.Minute))])
}

func TestS3Sink_ErrorAlSubir(t *testing.T) {
	sink := NewS3Sink(&fakeS3{putErr: errors.New("403")}, "bucket", "", 2)

	err := sink.Put(context.Background(), "respaldo_x.json", nil)
	assert.ErrorContains(t, err, "403")
}

// ─────────────────────────────────────────────────────────────────────────────
// NewBackupSink
// ─────────────────────────────────────────────────────────────────────────────

func TestNewBackupSink_DirectorioLocal(t *testing.T) {
	sink, err := NewBackupSink(context.Background(), config.BackupConfig{Dir: t.TempDir(), Keep: 2})
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, sink)
}

func TestNewBackupSink_BucketS3(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	sink, err := NewBackupSink(context.Background(), config.BackupConfig{
		S3Bucket:   "respaldos",
		S3Region:   "us-east-1",
		S3Endpoint: "http://localhost:9000",
		S3Access:   "minio",
		S3Secret:   "minio123",
		Keep:       5,
	})
	require.NoError(t, err)
	assert.IsType(t, &S3Sink{}, sink)
}
