package docstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"company_research/pkg/core/config"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeDocumentList_Shapes(t *testing.T) {
	want := []StoredDocument{
		{DocID: "d1", FileName: "Acme_10-K.pdf"},
		{DocID: "42", FileName: "Other.pdf"},
	}
	tests := []struct {
		name string
		body string
	}{
		{"raw list", `[{"doc_id":"d1","file_name":"Acme_10-K.pdf"},{"doc_id":42,"file_name":"Other.pdf"}]`},
		{"json string", `"[{\"doc_id\":\"d1\",\"file_name\":\"Acme_10-K.pdf\"},{\"doc_id\":42,\"file_name\":\"Other.pdf\"}]"`},
		{"documents wrapper", `{"documents":[{"doc_id":"d1","file_name":"Acme_10-K.pdf"},{"doc_id":42,"file_name":"Other.pdf"}],"total":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeDocumentList([]byte(tt.body))
			if got.Status != ListOK {
				t.Fatalf("status = %s (%s)", got.Status, got.Reason)
			}
			if diff := cmp.Diff(want, got.Documents); diff != "" {
				t.Errorf("documents mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeDocumentList_Malformed(t *testing.T) {
	for _, body := range []string{
		``,
		`not json`,
		`{"items":[]}`,
		`{"documents":{"nested":true}}`,
		`"just a string"`,
		`42`,
	} {
		got := DecodeDocumentList([]byte(body))
		if got.Status != ListMalformed {
			t.Errorf("%q: status = %s, want malformed", body, got.Status)
		}
		if got.Documents != nil {
			t.Errorf("%q: documents should be nil", body)
		}
	}
}

func TestDecodeDocumentList_SkipsNonRecords(t *testing.T) {
	got := DecodeDocumentList([]byte(`["loose string", 7, {"doc_id":"a","file_name":"x.pdf"}, null]`))
	if got.Status != ListOK {
		t.Fatalf("status = %s", got.Status)
	}
	if len(got.Documents) != 1 || got.Skipped != 3 {
		t.Errorf("got %d documents, %d skipped", len(got.Documents), got.Skipped)
	}
}

func newTestClient(url string) *Client {
	return NewClient(config.DocStoreConfig{APIBase: url + "/"})
}

func TestListExisting_UnwrapsDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"documents":[{"doc_id":"abc","file_name":"Acme_Annual_Report.pdf"}]}`))
	}))
	defer srv.Close()

	got := newTestClient(srv.URL).ListExisting(context.Background())
	want := []StoredDocument{{DocID: "abc", FileName: "Acme_Annual_Report.pdf"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestListExisting_NeverFails(t *testing.T) {
	bodies := map[string]func(w http.ResponseWriter){
		"server error": func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) },
		"html":         func(w http.ResponseWriter) { w.Write([]byte("<html>oops</html>")) },
		"nested dict":  func(w http.ResponseWriter) { w.Write([]byte(`{"documents":{"a":1}}`)) },
		"string":       func(w http.ResponseWriter) { w.Write([]byte(`"nothing"`)) },
	}
	for name, write := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { write(w) }))
			defer srv.Close()

			got := newTestClient(srv.URL).ListExisting(context.Background())
			if got == nil || len(got) != 0 {
				t.Errorf("want empty non-nil slice, got %#v", got)
			}
		})
	}

	// unreachable service
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	if got := newTestClient(srv.URL).ListExisting(context.Background()); len(got) != 0 {
		t.Errorf("want empty slice for closed server, got %v", got)
	}
}

func TestFindForCompany(t *testing.T) {
	existing := []StoredDocument{
		{DocID: "1", FileName: "Acme_Corp_10-K.pdf"},
		{DocID: "2", FileName: "globex_annual.pdf"},
		{DocID: "3", FileName: ""},
		{DocID: "", FileName: "ACME-Corp-2024.pdf"},
		{DocID: "5", FileName: "ACME-Corp-2024.pdf"},
	}

	got := FindForCompany("Acme Corp.", existing)
	want := []StoredDocument{existing[0], existing[4]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	for _, name := range []string{"Initech", "!!!", "", "  "} {
		if got := FindForCompany(name, existing); got == nil || len(got) != 0 {
			t.Errorf("FindForCompany(%q) = %v, want empty", name, got)
		}
	}
	if diff := cmp.Diff([]string{"1", "5"}, DocIDs(want)); diff != "" {
		t.Errorf("DocIDs mismatch: %s", diff)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUpload(t *testing.T) {
	var gotName, gotBody, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload/" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		gotAccept = r.Header.Get("Accept")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName, gotBody = hdr.Filename, string(b)
		w.Write([]byte(`{"doc_id":"doc-77","status":"processed"}`))
	}))
	defer srv.Close()

	path := writeTempFile(t, "Acme_10-K.pdf", "%PDF-1.7")
	id, err := newTestClient(srv.URL).Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "doc-77" {
		t.Errorf("doc id = %q", id)
	}
	if gotName != "Acme_10-K.pdf" || gotBody != "%PDF-1.7" || gotAccept != "application/json" {
		t.Errorf("server saw name=%q body=%q accept=%q", gotName, gotBody, gotAccept)
	}
}

func TestUpload_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"queued"}`))
	}))
	defer srv.Close()

	path := writeTempFile(t, "a.pdf", "x")
	c := newTestClient(srv.URL)

	if _, err := c.Upload(context.Background(), path); !errors.Is(err, ErrMissingDocID) {
		t.Errorf("err = %v, want ErrMissingDocID", err)
	}
	if _, err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	if _, err := newTestClient(failing.URL).Upload(context.Background(), path); err == nil {
		t.Error("expected error for 502")
	}
}
