package probe

import (
	"fmt"
	"net/http"
	"time"

	"sysbro/internal/domain"
)

type Target struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DefaultTargets are large public downloads used purely as payloads.
var DefaultTargets = []Target{
	{Name: "Server 1 (Baidu)", URL: "https://47d25d-1905179964.antpcdn.com:19001/b/pkg-ant.baidu.com/issue/netdisk/yunguanjia/BaiduNetdisk_7.44.6.1.exe"},
	{Name: "Server 2 (Alibaba)", URL: "https://download.alicdn.com/wangwang/AliIM2019_taobao(9.12.07C).exe"},
	{Name: "Server 3 (Tencent)", URL: "https://dldir1.qq.com/qqfile/qq/QQNT/Linux/QQ_3.2.12_240927_amd64_01.deb"},
	{Name: "Server 4 (SourceForge)", URL: "https://sourceforge.net/projects/deep-wine-runner-wine-download/files/wine-ce-8.13-amd64/wine-ce-8.13-amd64.7z/download"},
	{Name: "Server 5 (GitHub)", URL: "https://github.com/gfdgd-xi/deep-wine-runner/releases/download/4.1.0.0/spark-deepin-wine-runner_4.1.0.0_all.deb"},
}

// TargetsFromURLs builds a table from plain URLs, named by position.
func TargetsFromURLs(urls []string) []Target {
	targets := make([]Target, 0, len(urls))
	for i, u := range urls {
		targets = append(targets, Target{Name: fmt.Sprintf("Server %d", i+1), URL: u})
	}
	return targets
}

// NewHTTPClient returns a client that never goes through a proxy, whatever
// HTTP_PROXY says. No overall timeout is set; the prober bounds each run.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.ResponseHeaderTimeout = 10 * time.Second

	return &http.Client{Transport: transport}
}

func (p *Prober) target(index int) (Target, error) {
	if index < 0 || index >= len(p.targets) || p.targets[index].URL == "" {
		return Target{}, domain.Errorf(domain.KindInvalidSelection, "select probe target", "server index %d out of range [0,%d)", index, len(p.targets))
	}
	return p.targets[index], nil
}
