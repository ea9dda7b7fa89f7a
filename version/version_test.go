package version

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mediaroll/mediaroll/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Compare", t, func() {
		So(compareMust("0.3.1", "0.3.0"), ShouldEqual, 1)
		So(compareMust("v0.3.1", "0.3.1"), ShouldEqual, 0)
		So(compareMust("0.2.9", "0.10.0"), ShouldEqual, -1)

		So(compareMust("1.0.0-rc1", "1.0.0"), ShouldEqual, 0)
		So(compareMust("1.0.1+abc", "v1.0.0"), ShouldEqual, 1)

		for _, bad := range []string{"latest", "1.2", "1.2.3.4", "1.-2.3"} {
			_, err := Compare(bad, "0.1.0")
			So(err, ShouldNotBeNil)
		}
	})
}

func compareMust(a, b string) int {
	n, err := Compare(a, b)
	if err != nil {
		panic(err)
	}
	return n
}

func TestLatest(t *testing.T) {
	filesystem.SetMemMapFs()

	Convey("Given a release endpoint", t, func() {
		var hits int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			_, _ = fmt.Fprint(w, `{"tag_name":"v1.2.3"}`)
		}))
		defer srv.Close()

		previous := ReleasesURL
		ReleasesURL = srv.URL
		defer func() { ReleasesURL = previous }()

		Convey("Latest strips the prefix and caches the answer", func() {
			v, err := Latest(context.Background())
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "1.2.3")

			v, err = Latest(context.Background())
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "1.2.3")
			So(hits, ShouldEqual, 1)
		})
	})
}
