package catalog

import (
	"fmt"

	"github.com/mediaroll/mediaroll/media"
)

var taoziSlugs = []string{"dyksmn", "hs", "bs", "jk", "tm", "cy", "qc", "ll", "yz", "515", "cos", "yoz"}

// builtins returns fresh copies of the categories shipped with the binary.
func builtins(kind media.Kind) []media.Category {
	switch kind {
	case media.Video:
		taozi := make([]media.Endpoint, 0, len(taoziSlugs))
		for i, slug := range taoziSlugs {
			taozi = append(taozi, builtinEndpoint(
				"taozi",
				fmt.Sprintf("taozi_%d", i+1),
				fmt.Sprintf("Taozi %d", i+1),
				fmt.Sprintf("https://api.tzjsy.cn/sp/%s/video.php", slug),
			))
		}

		return []media.Category{
			{ID: "taozi", Name: "Taozi", Origin: media.Builtin, Endpoints: taozi},
			{ID: "wanfeng", Name: "Wanfeng", Origin: media.Builtin, Endpoints: []media.Endpoint{
				builtinEndpoint("wanfeng", "wanfeng_1", "Wanfeng dance", "http://api.nonebot.top/api/v1/random/dance_video"),
			}},
			{ID: "huai", Name: "Huai", Origin: media.Builtin, Endpoints: []media.Endpoint{
				builtinEndpoint("huai", "huai_1", "Huai douyin", "http://api.huaiyan.top:81/api/dy?type=mp4"),
			}},
		}
	case media.Image:
		return []media.Category{
			{ID: "btstu", Name: "Btstu", Origin: media.Builtin, Endpoints: []media.Endpoint{
				builtinEndpoint("btstu", "btstu_1", "Btstu wallpaper", "https://api.btstu.cn/sjbz/api.php?lx=meizi"),
				builtinEndpoint("btstu", "btstu_2", "Btstu wallpaper (json)", "https://api.btstu.cn/sjbz/api.php?lx=meizi&format=json"),
			}},
			{ID: "wanfeng", Name: "Wanfeng", Origin: media.Builtin, Endpoints: []media.Endpoint{
				builtinEndpoint("wanfeng", "wanfeng_1", "Wanfeng tuwan", "http://api.nonebot.top/api/v1/random/tuwan"),
			}},
		}
	default:
		return nil
	}
}

func builtinEndpoint(category, id, name, url string) media.Endpoint {
	return media.Endpoint{ID: id, Name: name, URL: url, CategoryID: category, Origin: media.Builtin}
}
