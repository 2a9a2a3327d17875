package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// PanelCSV is a two stock, two year panel with every column the lookup and
// explorer views look for, plus one frequency column.
const PanelCSV = `股票代码简称,企业名称,年份,行业名称_文件1,数字化转型指数,人工智能词频
000001,平安银行,2019,金融,10,1
000001,平安银行,2020,金融,20,3
000002,万科A,2019,地产,30,5
000002,万科A,2020,地产,40,7
`

// WritePanelCSV writes PanelCSV as name into dir and returns its path
func WritePanelCSV(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(PanelCSV), 0o644); err != nil {
		t.Fatalf("write panel fixture: %v", err)
	}
	return path
}
