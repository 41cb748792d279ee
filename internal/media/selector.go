package media

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/reddragonlabs/dragon-signal/internal/model"
)

var (
	videoExts = []string{".mp4", ".mov"}
	imageExts = []string{".png", ".jpg", ".jpeg", ".gif"}
)

// Selector 从素材目录中为告警挑选媒体文件
// 规则：有视频必选视频，没视频再选图片，都没有则无媒体
// 目录不可读降级为空素材池，不报错
type Selector struct {
	videoDir string
	imageDir string
}

// NewSelector 创建素材选择器
func NewSelector(videoDir, imageDir string) *Selector {
	return &Selector{videoDir: videoDir, imageDir: imageDir}
}

// Pick 随机挑选一个媒体素材
func (s *Selector) Pick() model.MediaAsset {
	if videos := listMediaFiles(s.videoDir, videoExts); len(videos) > 0 {
		return model.MediaAsset{
			Kind: model.MediaVideo,
			Path: videos[rand.Intn(len(videos))],
		}
	}

	if images := listMediaFiles(s.imageDir, imageExts); len(images) > 0 {
		return model.MediaAsset{
			Kind: model.MediaImage,
			Path: images[rand.Intn(len(images))],
		}
	}

	return model.MediaAsset{Kind: model.MediaNone}
}

func listMediaFiles(dir string, exts []string) []string {
	if dir == "" {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		for _, ext := range exts {
			if strings.HasSuffix(name, ext) {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return files
}
