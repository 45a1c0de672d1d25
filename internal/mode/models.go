package mode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"suite-installer/internal/logger"
	"suite-installer/internal/models"
	"suite-installer/internal/retcode"
)

// GetModelsMode downloads and unpacks every model archive listed in the manifest.
type GetModelsMode struct {
	base
	env *Env
}

// NewGetModels returns the getModels mode.
func NewGetModels(env *Env) *GetModelsMode {
	return &GetModelsMode{
		base: newBase(env, GetModels, Capabilities{LogsToFile: true, PrintsWithSubstitution: true}),
		env:  env,
	}
}

// Run implements Executor.
func (g *GetModelsMode) Run(ctx context.Context) Result {
	log := g.env.Log
	archives := g.env.Manifest.Models.Archives

	if len(archives) == 0 {
		log.Warn("No model archives are listed in the manifest")
		return Result{}
	}

	for _, archive := range archives {
		log.Progress("Downloading model %s...", archive.Name)
		local, err := g.env.Models.Fetch(ctx, archive)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Code: retcode.Interrupted}
			}
			return Result{Code: retcode.DownloadError, Message: err.Error()}
		}

		log.Progress("Extracting model %s...", archive.Name)
		dir, err := g.env.Models.Extract(local)
		if err != nil {
			return Result{Code: retcode.ArchiveError, Message: err.Error()}
		}
		log.Info("Model %s available in %s", archive.Name, dir)
	}
	return Result{}
}

// AddModelMode packages a local model directory and uploads it to the model host.
type AddModelMode struct {
	base
	params AddModelParams
	env    *Env
}

// NewAddModel returns the addModel mode. Login and model path are mandatory
// positional arguments, so their absence is a programming error.
func NewAddModel(params AddModelParams, env *Env) *AddModelMode {
	if params.Login == "" || params.ModelPath == "" {
		panic("mode: addModel requires a login and a model path")
	}
	return &AddModelMode{base: newBase(env, AddModel, Capabilities{LogsToFile: true}), params: params, env: env}
}

// Run implements Executor.
func (a *AddModelMode) Run(ctx context.Context) Result {
	log := a.env.Log
	store := a.env.Models

	info, err := os.Stat(a.params.ModelPath)
	if err != nil || !info.IsDir() {
		log.Errorf("The model path %s does not exist or is not a directory.", a.params.ModelPath)
		log.Errorf("addModel uploads a whole model directory; check the path and try again.")
		return Result{Code: retcode.IOError}
	}
	if store.Host == "" || store.RemoteDir == "" {
		return Result{Code: retcode.ConfigError, Message: "models.host and models.remote_dir must be set in the manifest to upload models"}
	}

	name := filepath.Base(filepath.Clean(a.params.ModelPath))
	target := fmt.Sprintf("%s@%s:%s", a.params.Login, store.Host, store.RemoteDir)
	if !confirm(ctx, a.env, a.params.AssumeYes, fmt.Sprintf("Model %s will be uploaded to %s.", logger.Bold(name), target)) {
		log.Warn("Upload aborted")
		return Result{Code: retcode.Interrupted}
	}

	tmp, err := os.MkdirTemp("", "suite-model-")
	if err != nil {
		return Result{Code: retcode.IOError, Message: err.Error()}
	}
	defer os.RemoveAll(tmp)

	archive := filepath.Join(tmp, name+".tar.gz")
	log.Progress("Packing %s...", name)
	if err := models.Pack(a.params.ModelPath, archive); err != nil {
		return Result{Code: retcode.ArchiveError, Message: err.Error()}
	}

	log.Progress("Uploading %s to %s...", name, target)
	if code, out := store.Upload(ctx, a.params.Login, archive); code != 0 {
		return failure(code, retcode.UploadError, tail(out, 10))
	}
	log.Info("Uploaded %s to %s", name, target)
	return Result{}
}
