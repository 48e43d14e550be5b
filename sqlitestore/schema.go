package sqlitestore

const (
	createTable = `CREATE TABLE IF NOT EXISTS cache(
  identity STRING,
  key      STRING,
  value    BLOB,
  dirty    INTEGER,
  PRIMARY KEY(identity, key)
)`

	upsertValue = "INSERT OR REPLACE INTO cache(identity,key,value,dirty) VALUES(?,?,?,?)"
	selectValue = "SELECT value FROM cache WHERE identity=? AND key=?"
	deleteValue = "DELETE FROM cache WHERE identity=? AND key=?"
	selectDirty = "SELECT dirty FROM cache WHERE identity=? AND key=?"
	updateDirty = "UPDATE cache SET dirty=? WHERE identity=? AND key=?"

	pragmaSyncOff = "PRAGMA synchronous = OFF"
)

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
