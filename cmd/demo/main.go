// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"log"
	"os"

	"tracing-demo/internal/app"
	"tracing-demo/pkg/config"
	"tracing-demo/pkg/tracing"
)

func main() {
	// 不读命令行、环境变量与配置文件，仅用内置默认值
	a, err := app.NewApp(config.Default(), os.Stdout, tracing.SetGlobalDefault)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
}
