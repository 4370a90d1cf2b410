package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/okian/pacer/internal/adapters/augment"
	"github.com/okian/pacer/internal/adapters/http/api"
	service "github.com/okian/pacer/internal/app"
	"github.com/okian/pacer/internal/domain/leads"
	"github.com/okian/pacer/internal/domain/model"
	"github.com/okian/pacer/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

// mockDependencies lets tests control probe and analysis behaviour.
type mockDependencies struct {
	analyzeErr error
	probeText  string
	probeErr   error
	panicOn    bool
	lastSub    model.Submission
}

func (m *mockDependencies) Analyze(_ context.Context, sub model.Submission) (model.AnalysisResponse, error) {
	if m.panicOn {
		panic("boom")
	}
	m.lastSub = sub
	return model.AnalysisResponse{Sport: sub.Sport}, m.analyzeErr
}

func (m *mockDependencies) Probe(_ context.Context, _ augment.Request) (string, error) {
	return m.probeText, m.probeErr
}

func (m *mockDependencies) Leads() []leads.Record { return leads.Default().All() }

type filePart struct {
	field, filename, mime string
	data                  []byte
}

func multipartBody(fields map[string]string, files ...filePart) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.mime)
		w, _ := mw.CreatePart(h)
		_, _ = w.Write(f.data)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func newMux(deps api.Dependencies, opts ...api.ServerOption) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...).Register(context.Background(), mux)
	return mux
}

func post(mux http.Handler, path string, fields map[string]string, files ...filePart) *httptest.ResponseRecorder {
	body, ct := multipartBody(fields, files...)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then health serves metrics", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats returns JSON", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("Then the lead table is listed", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			list := decode(w)["leads"].([]any)
			So(list, ShouldHaveLength, 12)
			So(list[0].(map[string]any)["athleteName"], ShouldEqual, "Neeraj Chopra")
		})

		Convey("Then every response carries a request id", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
			So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)

			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set("X-Request-ID", "abc-123")
			w = httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Header().Get("X-Request-ID"), ShouldEqual, "abc-123")
		})

		Convey("Then wrong methods get a JSON 405", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
			So(decode(w)["error"], ShouldContainSubstring, "method not allowed")
		})
	})
}

func TestAnalyze_Scenarios(t *testing.T) {
	Convey("Given the real pipeline without an augmentation credential", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When a javelin throw of 85 is submitted", func() {
			w := post(mux, "/api/analyze", map[string]string{"sport": "javelin", "distance": "85", "duration": "4.2"})

			Convey("Then the elite string and the lead comparison come back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["feedback"], ShouldEqual, "Elite release and run-up — well done!")
				So(body["inputMetric"], ShouldEqual, 85.0)
				So(body["duration"], ShouldEqual, 4.2)
				lead := body["lead"].(map[string]any)
				So(lead["name"], ShouldEqual, "Neeraj Chopra")
				So(lead["better"], ShouldEqual, "higher")
				cmp := body["comparison"].(map[string]any)
				So(cmp["pctOfLead"], ShouldEqual, 94.51)
				So(cmp["betterIs"], ShouldEqual, "higher")
				So(body["id"], ShouldEqual, w.Header().Get("X-Request-ID"))
			})
		})

		Convey("When a 400m time of 44 is submitted", func() {
			body := decode(post(mux, "/api/analyze", map[string]string{"sport": "sprint400", "distance": "44"}))

			Convey("Then the inverted direction picks the elite string", func() {
				So(body["feedback"], ShouldEqual, "Excellent split control — strong finish!")
				So(body["comparison"].(map[string]any)["betterIs"], ShouldEqual, "lower")
			})
		})

		Convey("When a weightlifting total of 150 is submitted", func() {
			body := decode(post(mux, "/api/analyze", map[string]string{"sport": "weightlifting", "distance": "150"}))

			Convey("Then the middle tier string is returned", func() {
				So(body["feedback"], ShouldEqual, "Good base — strengthen leg drive and turnover speed.")
			})
		})

		Convey("When the metric is not a number", func() {
			w := post(mux, "/api/analyze", map[string]string{"sport": "javelin", "distance": "abc", "duration": "NaN"})

			Convey("Then it is coerced to zero without a server error", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["inputMetric"], ShouldEqual, 0.0)
				So(body["duration"], ShouldEqual, 0.0)
				So(body["comparison"].(map[string]any)["pctOfLead"], ShouldEqual, 0.0)
			})
		})

		Convey("When no media parts are attached", func() {
			body := decode(post(mux, "/api/analyze", map[string]string{"sport": "javelin", "distance": "60"}))

			Convey("Then media is reported as absent", func() {
				media := body["media"].(map[string]any)
				So(media["received"], ShouldEqual, false)
				So(media["sizeBytes"], ShouldEqual, 0.0)
				So(media, ShouldContainKey, "mime")
				So(media["mime"], ShouldBeNil)
			})
		})

		Convey("When a video and a frame are attached", func() {
			body := decode(post(mux, "/api/analyze", map[string]string{"sport": "discus", "reportedMetric": "50"},
				filePart{"video", "attempt.webm", "video/webm", bytes.Repeat([]byte{1}, 300)},
				filePart{"frame", "frame.jpg", "image/jpeg", bytes.Repeat([]byte{2}, 40)},
			))

			Convey("Then the video is the primary part and the alias field is read", func() {
				media := body["media"].(map[string]any)
				So(media["received"], ShouldEqual, true)
				So(media["sizeBytes"], ShouldEqual, 300.0)
				So(media["mime"], ShouldEqual, "video/webm")
				So(body["inputMetric"], ShouldEqual, 50.0)
				So(body["feedback"], ShouldEqual, "Session recorded. Keep progressing with structured training.")
			})
		})

		Convey("When the sport is unknown or absent", func() {
			body := decode(post(mux, "/api/analyze", map[string]string{"distance": "12"}))

			Convey("Then the placeholder lead is used", func() {
				So(body["sport"], ShouldEqual, "unknown")
				So(body["lead"].(map[string]any)["name"], ShouldEqual, "Lead Athlete")
				So(body["comparison"].(map[string]any)["betterIs"], ShouldEqual, "higher")
			})
		})

		Convey("When probing without a credential", func() {
			w := post(mux, "/api/analyze/augment", map[string]string{"sport": "javelin"})

			Convey("Then it answers 501", func() {
				So(w.Code, ShouldEqual, http.StatusNotImplemented)
				So(decode(w)["error"], ShouldEqual, "OpenAI not configured")
			})
		})
	})
}

func TestAnalyze_TransportFailures(t *testing.T) {
	Convey("Given a server with a small part cap", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps, api.WithMaxPartBytes(1024))

		Convey("When a part exceeds the cap", func() {
			w := post(mux, "/api/analyze", map[string]string{"sport": "javelin"},
				filePart{"video", "attempt.webm", "video/webm", bytes.Repeat([]byte{1}, 2048)})

			Convey("Then it is rejected with 413 before the pipeline runs", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(decode(w)["error"], ShouldContainSubstring, "part too large")
				So(deps.lastSub.Sport, ShouldEqual, "")
			})
		})

		Convey("When a part is exactly at the cap", func() {
			w := post(mux, "/api/analyze", map[string]string{"sport": "javelin"},
				filePart{"frame", "frame.jpg", "image/jpeg", bytes.Repeat([]byte{1}, 1024)})

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastSub.Frame.Size, ShouldEqual, int64(1024))
			})
		})

		Convey("When the body is not multipart", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"sport":"javelin"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is a 400 JSON error", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the multipart body is truncated", func() {
			body, ct := multipartBody(map[string]string{"sport": "javelin"})
			truncated := body.String()[:body.Len()-10]
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(truncated))
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is a 400 JSON error", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When two frames are sent", func() {
			w := post(mux, "/api/analyze", nil,
				filePart{"frame", "a.jpg", "image/jpeg", []byte{1}},
				filePart{"frame", "b.jpg", "image/jpeg", []byte{2}})

			Convey("Then it is a 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the pipeline is unavailable", func() {
			deps.analyzeErr = service.ErrNotStarted
			w := post(mux, "/api/analyze", map[string]string{"sport": "javelin"})

			Convey("Then a 503 JSON error is returned", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decode(w)["error"], ShouldContainSubstring, "service not started")
			})
		})

		Convey("When a handler panics", func() {
			deps.panicOn = true
			w := post(mux, "/api/analyze", map[string]string{"sport": "javelin"})

			Convey("Then the client still receives a JSON 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(w)["error"], ShouldEqual, "internal error")
			})
		})
	})
}

func TestProbe(t *testing.T) {
	Convey("Given a configured augmentation dependency", t, func() {
		deps := &mockDependencies{probeText: "- Drive hips\nKeep going!"}
		mux := newMux(deps)

		Convey("When the probe succeeds", func() {
			w := post(mux, "/api/analyze/augment", map[string]string{"sport": "shotput"},
				filePart{"frame", "frame.jpg", "image/jpeg", []byte{0xff, 0xd8}})

			Convey("Then the feedback is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["feedback"], ShouldEqual, "- Drive hips\nKeep going!")
			})
		})

		Convey("When the remote call fails", func() {
			deps.probeErr = errors.New("augmentation unavailable: API error (500)")
			w := post(mux, "/api/analyze/augment", map[string]string{"sport": "shotput"})

			Convey("Then a 500 carries the message", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(w)["error"], ShouldEqual, "augmentation unavailable: API error (500)")
			})
		})
	})
}
