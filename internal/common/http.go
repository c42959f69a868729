package common

import (
	"log"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// Basic project metadata surfaced via response headers.
const (
	ProjectName    = "sparkdesk"
	ProjectVersion = "0.1.0"
)

// InitHertzLogger routes hlog through the std logger output.
func InitHertzLogger() { hlog.SetOutput(log.Writer()) }
