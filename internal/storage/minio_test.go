package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMinIO is a minimal S3 endpoint that records requests and answers with
// canned responses
type fakeMinIO struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string

	restoreHeader string
	restoreStatus int
	restoreBody   string
	listBody      string
}

func (f *fakeMinIO) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodHead:
		w.Header().Set("Last-Modified", "Mon, 01 Jan 2024 00:00:00 GMT")
		w.Header().Set("ETag", `"abc"`)
		w.Header().Set("Content-Length", "0")
		if f.restoreHeader != "" {
			w.Header().Set("x-amz-restore", f.restoreHeader)
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost && r.URL.Query().Has("restore"):
		status := f.restoreStatus
		if status == 0 {
			status = http.StatusAccepted
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		io.WriteString(w, f.restoreBody)

	case r.Method == http.MethodPut:
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, `<CopyObjectResult><LastModified>2024-01-01T00:00:00.000Z</LastModified><ETag>"abc"</ETag></CopyObjectResult>`)

	case r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, f.listBody)

	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (f *fakeMinIO) last() (*http.Request, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.requests)
	return f.requests[n-1], f.bodies[n-1]
}

func newTestMinIOGateway(t *testing.T, fake *fakeMinIO) *MinIOGateway {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	gw, err := NewMinIOGateway(Config{
		Provider:  ProviderMinIO,
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)
	return gw
}

func TestMinIOGatewayCopyInPlace(t *testing.T) {
	fake := &fakeMinIO{}
	gw := newTestMinIOGateway(t, fake)

	require.NoError(t, gw.CopyInPlace(context.Background(), "bkt", "dir/a b.txt", "INTELLIGENT_TIERING"))

	req, _ := fake.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/bkt/dir/a b.txt", req.URL.Path)
	assert.Equal(t, "bkt/dir/a%20b.txt", req.Header.Get("X-Amz-Copy-Source"))
	assert.Equal(t, "INTELLIGENT_TIERING", req.Header.Get("X-Amz-Storage-Class"))
	assert.Equal(t, "COPY", req.Header.Get("X-Amz-Metadata-Directive"))
}

func TestMinIOGatewayRestoreRequest(t *testing.T) {
	fake := &fakeMinIO{}
	gw := newTestMinIOGateway(t, fake)

	err := gw.RestoreRequest(context.Background(), "bkt", "cold/b", RestoreOptions{Days: 10, Tier: RetrievalBulk})
	require.NoError(t, err)

	req, body := fake.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/bkt/cold/b", req.URL.Path)
	assert.Contains(t, body, "<Days>10</Days>")
	assert.Contains(t, body, "<Tier>Bulk</Tier>")
}

func TestMinIOGatewayRestoreErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		code       string
		inProgress bool
	}{
		{name: "already in progress", status: http.StatusConflict, code: "RestoreAlreadyInProgress", inProgress: true},
		{name: "invalid state", status: http.StatusForbidden, code: "InvalidObjectState"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeMinIO{
				restoreStatus: tt.status,
				restoreBody:   `<Error><Code>` + tt.code + `</Code><Message>nope</Message></Error>`,
			}
			gw := newTestMinIOGateway(t, fake)

			err := gw.RestoreRequest(context.Background(), "bkt", "cold/b", RestoreOptions{Days: 1, Tier: RetrievalBulk})
			require.Error(t, err)
			assert.Equal(t, tt.inProgress, errors.Is(err, ErrRestoreInProgress))
		})
	}
}

func TestMinIOGatewayHeadStatus(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   RestoreStatus
	}{
		{name: "never restored", header: "", want: RestoreStatus{}},
		{name: "ongoing", header: `ongoing-request="true"`, want: RestoreStatus{Requested: true, Ongoing: true}},
		{
			name:   "restored",
			header: `ongoing-request="false", expiry-date="Fri, 23 Dec 2012 00:00:00 GMT"`,
			want:   RestoreStatus{Requested: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newTestMinIOGateway(t, &fakeMinIO{restoreHeader: tt.header})

			status, err := gw.HeadStatus(context.Background(), "bkt", "cold/b")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestMinIOGatewayList(t *testing.T) {
	fake := &fakeMinIO{listBody: `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>bkt</Name>
  <Prefix>data/</Prefix>
  <KeyCount>2</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents>
    <Key>data/a</Key>
    <LastModified>2024-01-01T00:00:00.000Z</LastModified>
    <ETag>"a"</ETag>
    <Size>1</Size>
    <StorageClass>GLACIER_IR</StorageClass>
  </Contents>
  <Contents>
    <Key>data/b</Key>
    <LastModified>2024-01-01T00:00:00.000Z</LastModified>
    <ETag>"b"</ETag>
    <Size>1</Size>
    <StorageClass>GLACIER</StorageClass>
  </Contents>
</ListBucketResult>`}
	gw := newTestMinIOGateway(t, fake)

	objects, err := gw.List(context.Background(), "bkt", "data/")
	require.NoError(t, err)
	assert.Equal(t, []ObjectInfo{
		{Key: "data/a", StorageClass: "GLACIER_IR"},
		{Key: "data/b", StorageClass: "GLACIER"},
	}, objects)
}

func TestEndpointHost(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "localhost:9000", want: "localhost:9000"},
		{input: "https://s3.example.com", want: "s3.example.com"},
		{input: "http://minio:9000/", want: "minio:9000"},
		{input: "http://minio:9000/bucket", wantErr: true},
		{input: "minio/bucket", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := endpointHost(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
