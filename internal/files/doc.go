// Package files locates input tables on disk.
//
// When no input file is named on the command line or in the config,
// the pipeline picks the most recently modified CSV or XLSX table in
// data_dir.
//
//	discovery := files.NewDiscovery(cfg.DataDir)
//	path, err := discovery.ResolveInput(cfg.InputFile)
package files
