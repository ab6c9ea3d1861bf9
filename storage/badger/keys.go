package badger

// Key layout: vecrec:<namespace>:<record-id>
const vectorRecordPrefix = "vecrec"

// namespacePrefix returns the key prefix covering every record in a namespace.
func namespacePrefix(namespace string) []byte {
	return []byte(vectorRecordPrefix + ":" + namespace + ":")
}

// makeRecordKey generates the key for a single record.
func makeRecordKey(namespace, id string) []byte {
	return []byte(vectorRecordPrefix + ":" + namespace + ":" + id)
}
