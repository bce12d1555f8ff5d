package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for planet documents.
//
// Names, terrains and climates are full-text searchable with English
// stemming; population supports numeric range queries.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Name field - primary search target
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Terrain and climate names, space-joined into one searchable field each
	terrainsFieldMapping := bleve.NewTextFieldMapping()
	terrainsFieldMapping.Analyzer = en.AnalyzerName
	terrainsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("terrains", terrainsFieldMapping)

	climatesFieldMapping := bleve.NewTextFieldMapping()
	climatesFieldMapping.Analyzer = en.AnalyzerName
	climatesFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("climates", climatesFieldMapping)

	// ID - stored but not analyzed
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// Population - for range filtering
	populationFieldMapping := bleve.NewNumericFieldMapping()
	populationFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("population", populationFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
