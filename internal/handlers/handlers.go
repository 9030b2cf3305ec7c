package handlers

import (
	"mangashelf/internal/database"
	"mangashelf/internal/indexer"
	"mangashelf/internal/media"
	"mangashelf/internal/pdfrender"
	"mangashelf/internal/startup"
)

type Handlers struct {
	db          *database.Database
	indexer     *indexer.Indexer
	renderer    pdfrender.Renderer
	thumbGen    *media.ThumbnailGenerator
	libraryDirs []string
	defaultSort int
	pageScale   float64
}

func New(db *database.Database, idx *indexer.Indexer, renderer pdfrender.Renderer, thumbGen *media.ThumbnailGenerator, config *startup.Config) *Handlers {
	return &Handlers{
		db:          db,
		indexer:     idx,
		renderer:    renderer,
		thumbGen:    thumbGen,
		libraryDirs: config.LibraryDirs,
		defaultSort: config.DefaultSort,
		pageScale:   config.PageScale,
	}
}
