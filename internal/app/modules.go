package app

import (
	"github.com/vk/stagehand/internal/registry"
	"github.com/vk/stagehand/modules/httpprobe"
	"github.com/vk/stagehand/modules/memcache"
)

// coreModules lists the component-type modules compiled into the stagehand
// binary.
var coreModules = []registry.Module{
	&httpprobe.Module{},
	&memcache.Module{},
}
