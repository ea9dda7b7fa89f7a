package log

import (
	"bytes"
	"testing"

	"github.com/mediaroll/mediaroll/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestLogging(t *testing.T) {
	Convey("Given logging is disabled", t, func() {
		enabled = false

		Convey("WithFields hands out a silent entry", func() {
			entry := WithFields(Fields{"kind": "video"})
			So(entry.Logger, ShouldEqual, discard)
			So(entry.Data["kind"], ShouldEqual, "video")
		})
	})

	Convey("Given logging is configured", t, func() {
		var buf bytes.Buffer
		viper.Set(key.LogsJson, false)
		viper.Set(key.LogsLevel, "debug")
		So(configure(&buf), ShouldBeNil)
		defer func() { enabled = false }()

		Convey("Messages reach the output with their fields", func() {
			WithField("id", "abc").Info("promoted")
			So(buf.String(), ShouldContainSubstring, "promoted")
			So(buf.String(), ShouldContainSubstring, "id=abc")
		})

		Convey("Debug messages pass at debug level", func() {
			Debugf("queue length %d", 2)
			So(buf.String(), ShouldContainSubstring, "queue length 2")
		})
	})
}
