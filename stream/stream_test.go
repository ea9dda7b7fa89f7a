package stream

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mediaroll/mediaroll/media"
	"github.com/mediaroll/mediaroll/network"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func get(h http.Handler, path, rng string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if rng != "" {
		req.Header.Set("Range", rng)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestParseRange(t *testing.T) {
	Convey("ParseRange", t, func() {
		Convey("accepts a closed range", func() {
			start, end, ok := ParseRange("bytes=2-5", 10)
			So(ok, ShouldBeTrue)
			So(start, ShouldEqual, 2)
			So(end, ShouldEqual, 5)
		})

		Convey("an open end means the last byte", func() {
			start, end, ok := ParseRange("bytes=0-", 10)
			So(ok, ShouldBeTrue)
			So(start, ShouldEqual, 0)
			So(end, ShouldEqual, 9)
		})

		Convey("a bare start is an open range", func() {
			_, end, ok := ParseRange("bytes=7", 10)
			So(ok, ShouldBeTrue)
			So(end, ShouldEqual, 9)
		})

		Convey("rejects malformed headers", func() {
			for _, header := range []string{
				"",
				"0-5",
				"items=0-5",
				"bytes=a-5",
				"bytes=-5",
				"bytes=6-5",
				"bytes=0-10",
				"bytes=10-",
			} {
				_, _, ok := ParseRange(header, 10)
				So(ok, ShouldBeFalse)
			}
		})

		Convey("rejects any range on an empty body", func() {
			_, _, ok := ParseRange("bytes=0-", 0)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestParseURI(t *testing.T) {
	Convey("ParseURI", t, func() {
		parse := func(raw string) (media.Kind, string, bool) {
			return ParseURI(lo.Must(url.Parse(raw)))
		}

		Convey("understands the three-slash form", func() {
			kind, id, ok := parse("stream:///video/abc-123")
			So(ok, ShouldBeTrue)
			So(kind, ShouldEqual, media.Video)
			So(id, ShouldEqual, "abc-123")
		})

		Convey("understands the legacy two-slash form identically", func() {
			kind, id, ok := parse("stream://video/abc-123")
			So(ok, ShouldBeTrue)
			So(kind, ShouldEqual, media.Video)
			So(id, ShouldEqual, "abc-123")
		})

		Convey("understands request paths", func() {
			kind, id, ok := parse("/image/xyz")
			So(ok, ShouldBeTrue)
			So(kind, ShouldEqual, media.Image)
			So(id, ShouldEqual, "xyz")
		})

		Convey("rejects unknown shapes", func() {
			for _, raw := range []string{"stream:///audio/x", "stream:///video/", "/video", "/video/a/b", "stream://other/x"} {
				_, _, ok := parse(raw)
				So(ok, ShouldBeFalse)
			}
		})

		Convey("round-trips URI", func() {
			kind, id, ok := parse(URI(media.Video, "42"))
			So(URI(media.Video, "42"), ShouldEqual, "stream:///video/42")
			So(ok, ShouldBeTrue)
			So(kind, ShouldEqual, media.Video)
			So(id, ShouldEqual, "42")
		})
	})
}

type served struct {
	paths []string
}

func (s *served) StreamServed(path string, status int) {
	s.paths = append(s.paths, fmt.Sprintf("%s:%d", path, status))
}

func TestLocalBuffer(t *testing.T) {
	Convey("Given a promoted item", t, func() {
		obs := &served{}
		s := New(network.New(network.Options{Timeout: time.Second}), obs)
		body := []byte("0123456789")
		s.Promote(&media.Item{ID: "abc", Kind: media.Video, Data: body})

		Convey("a missing range returns the full buffer", func() {
			rec := get(s, "/video/abc", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "0123456789")
			So(rec.Header().Get("Content-Length"), ShouldEqual, "10")
			So(rec.Header().Get("Accept-Ranges"), ShouldEqual, "bytes")
			So(rec.Header().Get("Content-Type"), ShouldEqual, "video/mp4")
			So(obs.paths, ShouldResemble, []string{"local:200"})
		})

		Convey("bytes=0- returns every byte as partial content", func() {
			rec := get(s, "/video/abc", "bytes=0-")
			So(rec.Code, ShouldEqual, http.StatusPartialContent)
			So(rec.Body.Len(), ShouldEqual, len(body))
			So(rec.Header().Get("Content-Range"), ShouldEqual, "bytes 0-9/10")
		})

		Convey("a closed range returns exactly end-start+1 bytes", func() {
			rec := get(s, "/video/abc", "bytes=3-6")
			So(rec.Code, ShouldEqual, http.StatusPartialContent)
			So(rec.Body.String(), ShouldEqual, "3456")
			So(rec.Header().Get("Content-Length"), ShouldEqual, "4")
			So(rec.Header().Get("Content-Range"), ShouldEqual, "bytes 3-6/10")
		})

		Convey("malformed ranges fall back to a full response", func() {
			for _, rng := range []string{"bytes=x-1", "bytes=8-2", "bytes=0-10", "chunks=0-1"} {
				rec := get(s, "/video/abc", rng)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldEqual, "0123456789")
				So(rec.Header().Get("Content-Range"), ShouldBeEmpty)
			}
		})

		Convey("HEAD sends headers only", func() {
			req := httptest.NewRequest(http.MethodHead, "/video/abc", nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Length"), ShouldEqual, "10")
			So(rec.Body.Len(), ShouldEqual, 0)
		})

		Convey("other methods are refused", func() {
			req := httptest.NewRequest(http.MethodPost, "/video/abc", nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("the declared content type wins", func() {
			s.Promote(&media.Item{ID: "img", Kind: media.Image, ContentType: "image/png", Data: []byte("png")})
			rec := get(s, "/image/img", "")
			So(rec.Header().Get("Content-Type"), ShouldEqual, "image/png")
		})

		Convey("an image does not displace the playing video", func() {
			s.Promote(&media.Item{ID: "img", Kind: media.Image, ContentType: "image/png", Data: []byte("png")})

			rec := get(s, "/video/abc", "bytes=2-4")
			So(rec.Code, ShouldEqual, http.StatusPartialContent)
			So(rec.Body.String(), ShouldEqual, "234")
			So(get(s, "/image/img", "").Body.String(), ShouldEqual, "png")
		})

		Convey("an id of another kind is not served from memory", func() {
			So(get(s, "/image/abc", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("demoting drops the buffer of that kind only", func() {
			s.Promote(&media.Item{ID: "img", Kind: media.Image, Data: []byte("png")})
			s.Demote(media.Video)

			_, ok := s.Playing(media.Video)
			So(ok, ShouldBeFalse)
			So(get(s, "/video/abc", "").Code, ShouldEqual, http.StatusNotFound)

			_, ok = s.Playing(media.Image)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestProxyFallback(t *testing.T) {
	var gotRange, gotReferer string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		gotReferer = r.Header.Get("Referer")
		body := "remote-bytes"
		w.Header().Set("Content-Type", "video/webm")
		if rng := r.Header.Get("Range"); strings.HasPrefix(rng, "bytes=0-5") {
			w.Header().Set("Content-Range", "bytes 0-5/"+strconv.Itoa(len(body)))
			w.WriteHeader(http.StatusPartialContent)
			_, _ = io.WriteString(w, body[:6])
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	defer origin.Close()

	Convey("Given no promoted item", t, func() {
		obs := &served{}
		client := network.New(network.Options{Timeout: 5 * time.Second, MaxRedirects: 5, Referer: "https://ref.example/"})
		s := New(client, obs)

		Convey("nothing resolved yet means 404", func() {
			So(get(s, "/video/unknown", "").Code, ShouldEqual, http.StatusNotFound)
			So(obs.paths, ShouldResemble, []string{"proxy:404"})
		})

		Convey("the last resolved URL is proxied with the range forwarded", func() {
			s.SetLastURL(media.Video, origin.URL+"/clip")
			rec := get(s, "/video/unknown", "bytes=0-5")

			So(rec.Code, ShouldEqual, http.StatusPartialContent)
			So(rec.Body.String(), ShouldEqual, "remote")
			So(rec.Header().Get("Content-Range"), ShouldEqual, "bytes 0-5/12")
			So(rec.Header().Get("Content-Type"), ShouldEqual, "video/webm")
			So(gotRange, ShouldEqual, "bytes=0-5")
			So(gotReferer, ShouldEqual, "https://ref.example/")
		})

		Convey("a full request relays the upstream status", func() {
			s.SetLastURL(media.Video, origin.URL+"/clip")
			rec := get(s, "/video/unknown", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "remote-bytes")
			So(gotRange, ShouldBeEmpty)
		})

		Convey("kinds keep separate fallback URLs", func() {
			s.SetLastURL(media.Image, origin.URL+"/pic")
			So(get(s, "/video/unknown", "").Code, ShouldEqual, http.StatusNotFound)

			u, ok := s.LastURL(media.Image)
			So(ok, ShouldBeTrue)
			So(u, ShouldEqual, origin.URL+"/pic")
		})

		Convey("an unreachable upstream means 500", func() {
			dead := httptest.NewServer(http.NotFoundHandler())
			deadURL := dead.URL
			dead.Close()

			s.SetLastURL(media.Video, deadURL+"/clip")
			So(get(s, "/video/unknown", "").Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("a path that names no kind is 404", func() {
			So(get(s, "/nothing", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
