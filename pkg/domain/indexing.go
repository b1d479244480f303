package domain

// IndexEngine defines the interface for equality indexes kept by a store
type IndexEngine interface {
	CreateIndex(collectionName, fieldName string, docs map[string]Document)
	DropCollection(collectionName string)
	UpdateIndexes(collectionName, docID string, oldDoc, newDoc Document)
	Lookup(collectionName, fieldName string, value interface{}) (map[string]struct{}, bool)
	GetIndexes(collectionName string) []string
}
