package color

import (
	"testing"

	"github.com/mediaroll/mediaroll/media"
	. "github.com/smartystreets/goconvey/convey"
)

func TestForKind(t *testing.T) {
	Convey("Each kind has its own accent", t, func() {
		So(ForKind(media.Video), ShouldEqual, VideoAccent)
		So(ForKind(media.Image), ShouldEqual, ImageAccent)
		So(VideoAccent, ShouldNotEqual, ImageAccent)
	})
}
