package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mediaroll/mediaroll/media"
	"github.com/mediaroll/mediaroll/network"
	. "github.com/smartystreets/goconvey/convey"
)

func upstream() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/redirect/absolute", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://cdn.example.com/v/1.mp4")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/redirect/relative", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "../files/2.mp4")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	mux.HandleFunc("/redirect/none", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/binary/video", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("....ftypisom"))
	})
	mux.HandleFunc("/binary/octet", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0, 1, 2})
	})
	mux.HandleFunc("/binary/image", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	})
	mux.HandleFunc("/files/clip.MP4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("not sniffed"))
	})
	mux.HandleFunc("/files/pic.webp", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
	})
	mux.HandleFunc("/json/ok", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":200,"data":"https://x/a.mp4"}`)
	})
	mux.HandleFunc("/json/fail", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":500,"msg":"rate limited","data":""}`)
	})
	mux.HandleFunc("/json/broken", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":`)
	})
	mux.HandleFunc("/image/nested", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"url":"https://y/b.jpg"}}`)
	})
	mux.HandleFunc("/image/top", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "\n  {\"code\":1,\"imgurl\":\"https://y/top.png\",\"pic\":\"https://y/ignored.png\"}")
	})
	mux.HandleFunc("/image/bare", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `"https://y/bare.gif"`)
	})
	mux.HandleFunc("/image/empty", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"width":100}}`)
	})
	mux.HandleFunc("/image/text", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "  https://y/plain.jpg\n")
	})
	mux.HandleFunc("/unknown", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusTeapot)
		fmt.Fprint(w, "<html></html>")
	})
	mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landing", http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>player</html>")
	})

	return httptest.NewServer(mux)
}

func TestResolve(t *testing.T) {
	srv := upstream()
	defer srv.Close()

	r := New(network.New(network.Options{Timeout: 5 * time.Second}), 1<<20)
	ctx := context.Background()

	resolve := func(kind media.Kind, p string) (*media.Reference, error) {
		return r.Resolve(ctx, kind, srv.URL+p)
	}

	Convey("Given a redirecting endpoint", t, func() {
		Convey("an absolute Location is returned as-is", func() {
			ref, err := resolve(media.Video, "/redirect/absolute")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEqual, "https://cdn.example.com/v/1.mp4")
		})

		Convey("a relative Location is resolved against the endpoint", func() {
			ref, err := resolve(media.Video, "/redirect/relative")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEqual, srv.URL+"/files/2.mp4")
		})

		Convey("a missing Location fails", func() {
			_, err := resolve(media.Image, "/redirect/none")
			So(errors.Is(err, media.ErrMissingRedirectTarget), ShouldBeTrue)
		})
	})

	Convey("Given an endpoint serving media directly", t, func() {
		Convey("a video content type yields the endpoint URL", func() {
			ref, err := resolve(media.Video, "/binary/video")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEqual, srv.URL+"/binary/video")
			So(ref.Inline(), ShouldBeFalse)
		})

		Convey("octet-stream is accepted for both kinds", func() {
			ref, err := resolve(media.Image, "/binary/octet")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEqual, srv.URL+"/binary/octet")
		})

		Convey("an image content type carries the bytes inline", func() {
			ref, err := resolve(media.Image, "/binary/image")
			So(err, ShouldBeNil)
			So(ref.Inline(), ShouldBeTrue)
			So(string(ref.Data), ShouldEqual, "\x89PNG")
			So(ref.ContentType, ShouldEqual, "image/png")
		})

		Convey("an image content type is not accepted on the video path", func() {
			_, err := resolve(media.Video, "/binary/image")
			var unknown *media.UnknownFormatError
			So(errors.As(err, &unknown), ShouldBeTrue)
		})
	})

	Convey("Given an endpoint whose path names a media file", t, func() {
		Convey("video extensions match case-insensitively", func() {
			ref, err := resolve(media.Video, "/files/clip.MP4")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEqual, srv.URL+"/files/clip.MP4")
		})

		Convey("image extensions match on the image path", func() {
			ref, err := resolve(media.Image, "/files/pic.webp")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEqual, srv.URL+"/files/pic.webp")
		})
	})

	Convey("Given a video JSON envelope", t, func() {
		Convey("code 200 yields data", func() {
			ref, err := resolve(media.Video, "/json/ok")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEqual, "https://x/a.mp4")
		})

		Convey("any other code is an upstream error", func() {
			_, err := resolve(media.Video, "/json/fail")
			var upstream *media.UpstreamError
			So(errors.As(err, &upstream), ShouldBeTrue)
			So(upstream.Code, ShouldEqual, 500)
			So(upstream.Msg, ShouldEqual, "rate limited")
		})

		Convey("malformed JSON carries no url", func() {
			_, err := resolve(media.Video, "/json/broken")
			So(errors.Is(err, media.ErrNoURLInResponse), ShouldBeTrue)
		})
	})

	Convey("Given an image JSON document", t, func() {
		Convey("a url nested under data is extracted", func() {
			ref, err := resolve(media.Image, "/image/nested")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEqual, "https://y/b.jpg")
		})

		Convey("top-level keys win in declared order", func() {
			ref, err := resolve(media.Image, "/image/top")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEqual, "https://y/top.png")
		})

		Convey("a bare JSON string is the url", func() {
			ref, err := resolve(media.Image, "/image/bare")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEqual, "https://y/bare.gif")
		})

		Convey("a document without any known key fails", func() {
			_, err := resolve(media.Image, "/image/empty")
			So(errors.Is(err, media.ErrNoURLInResponse), ShouldBeTrue)
		})
	})

	Convey("Given a plain-text body", t, func() {
		Convey("the image path accepts an http url", func() {
			ref, err := resolve(media.Image, "/image/text")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEqual, "https://y/plain.jpg")
		})

		Convey("the video path does not", func() {
			_, err := resolve(media.Video, "/image/text")
			var unknown *media.UnknownFormatError
			So(errors.As(err, &unknown), ShouldBeTrue)
		})
	})

	Convey("Given an unrecognised response", t, func() {
		_, err := resolve(media.Video, "/unknown")
		var unknown *media.UnknownFormatError
		So(errors.As(err, &unknown), ShouldBeTrue)
		So(unknown.Status, ShouldEqual, http.StatusTeapot)
	})

	Convey("Given a client that followed a redirect on its own", t, func() {
		following := New(network.New(network.Options{Timeout: 5 * time.Second, MaxRedirects: 1}), 0)
		ref, err := following.Resolve(ctx, media.Video, srv.URL+"/hop")
		So(err, ShouldBeNil)
		So(ref.URL, ShouldEqual, srv.URL+"/landing")
	})
}

func TestExtractImageURL(t *testing.T) {
	Convey("ExtractImageURL", t, func() {
		Convey("prefers data when it is a string", func() {
			found, ok := ExtractImageURL(map[string]any{"data": "https://a", "url": "https://b"})
			So(ok, ShouldBeTrue)
			So(found, ShouldEqual, "https://a")
		})

		Convey("skips blank strings", func() {
			found, ok := ExtractImageURL(map[string]any{"imgurl": "  ", "pic": "https://c"})
			So(ok, ShouldBeTrue)
			So(found, ShouldEqual, "https://c")
		})

		Convey("falls through to the nested object", func() {
			found, ok := ExtractImageURL(map[string]any{"data": map[string]any{"pic": "https://d"}})
			So(ok, ShouldBeTrue)
			So(found, ShouldEqual, "https://d")
		})

		Convey("ignores non-string values", func() {
			_, ok := ExtractImageURL([]any{"https://e"})
			So(ok, ShouldBeFalse)
		})
	})
}
