package main

import (
	"context"
	"os"
	"path/filepath"

	"contextai-go/internal/service"
	"contextai-go/pkg/log"
)

// seedDocuments 扫描 dir 下的文件并通过正常上传流程导入。目录中文件名已在
// 目录里登记过的会被跳过，因此重启是幂等的。
func seedDocuments(ctx context.Context, dir string, docs service.DocumentService) int {
	if dir == "" {
		return 0
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Infof("seedDocuments: 目录 '%s' 不存在或不可用，跳过初始化导入", dir)
		return 0
	}

	existing, err := docs.List(ctx)
	if err != nil {
		log.Warnf("seedDocuments: 获取文档目录失败，跳过初始化导入: %v", err)
		return 0
	}
	known := make(map[string]bool, len(existing))
	for _, d := range existing {
		known[d.FileName] = true
	}

	imported := 0
	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		if known[name] {
			log.Infof("seedDocuments: 已存在，跳过: %s", name)
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("seedDocuments: 读取文件失败: %s, err=%v", path, err)
			return nil
		}
		doc, err := docs.Upload(ctx, name, content)
		if err != nil {
			log.Warnf("seedDocuments: 导入失败: %s, err=%v", path, err)
			return nil
		}
		known[name] = true
		imported++
		log.Infof("seedDocuments: 导入完成: %s (document_id=%s)", name, doc.DocumentID)
		return nil
	})
	if walkErr != nil {
		log.Warnf("seedDocuments: 遍历目录发生错误: %v", walkErr)
	}
	return imported
}
