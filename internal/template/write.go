package template

import (
	"os"
	"path/filepath"
)

// WriteFile replaces path with content. The data goes to a temporary file in
// the same directory first so readers never see a partial README.
func WriteFile(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return writeError(path, "创建输出目录失败", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return writeError(path, "创建临时文件失败", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return writeError(path, "写入输出文件失败", err)
	}
	if err := tmp.Close(); err != nil {
		return writeError(path, "写入输出文件失败", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return writeError(path, "设置文件权限失败", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return writeError(path, "替换输出文件失败", err)
	}
	return nil
}
