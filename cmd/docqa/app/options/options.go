// Package options aggregates all flag groups for the docqa server command.
package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/loaddesk/loaddesk/internal/docqa"
	"github.com/loaddesk/loaddesk/pkg/app"
	"github.com/loaddesk/loaddesk/pkg/app/cliflag"
	cacheopts "github.com/loaddesk/loaddesk/pkg/options/cache"
	docqaopts "github.com/loaddesk/loaddesk/pkg/options/docqa"
	llmopts "github.com/loaddesk/loaddesk/pkg/options/llm"
	loggeropts "github.com/loaddesk/loaddesk/pkg/options/logger"
	milvusopts "github.com/loaddesk/loaddesk/pkg/options/milvus"
	httpopts "github.com/loaddesk/loaddesk/pkg/options/server/http"
)

var _ app.CliOptions = (*ServerOptions)(nil)

// ServerOptions 服务端完整命令行选项。
type ServerOptions struct {
	HTTP      *httpopts.Options        `json:"http" mapstructure:"http"`
	Log       *loggeropts.Options      `json:"log" mapstructure:"log"`
	Chat      *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	Milvus    *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	Cache     *cacheopts.Options       `json:"cache" mapstructure:"cache"`
	Pipeline  *docqaopts.Options       `json:"docqa" mapstructure:"docqa"`
}

// NewServerOptions 创建带默认值的选项。
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTP:      httpopts.NewOptions(),
		Log:       loggeropts.NewOptions(),
		Chat:      llmopts.NewChatOptions(),
		Embedding: llmopts.NewEmbeddingOptions(),
		Milvus:    milvusopts.NewOptions(),
		Cache:     cacheopts.NewOptions(),
		Pipeline:  docqaopts.NewOptions(),
	}
}

// Flags returns the named flag groups.
func (o *ServerOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}

	o.HTTP.AddFlags(fss.FlagSet("http"))
	o.Log.AddFlags(fss.FlagSet("log"))
	o.Chat.AddFlags(fss.FlagSet("chat"), "chat")
	o.Embedding.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.Milvus.AddFlags(fss.FlagSet("milvus"))
	o.Cache.AddFlags(fss.FlagSet("cache"))
	o.Pipeline.AddFlags(fss.FlagSet("pipeline"))

	return fss
}

// Complete fills in defaults that depend on other values or the environment.
func (o *ServerOptions) Complete() error {
	if err := o.Chat.Complete(); err != nil {
		return err
	}
	if err := o.Embedding.Complete(); err != nil {
		return err
	}
	if err := o.Cache.Complete(); err != nil {
		return err
	}
	if err := o.Pipeline.Complete(); err != nil {
		return err
	}
	return o.HTTP.Complete()
}

// Validate checks all option groups.
func (o *ServerOptions) Validate() error {
	var errs []error

	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	errs = append(errs, o.Chat.Validate()...)
	errs = append(errs, o.Embedding.Validate()...)
	errs = append(errs, o.Cache.Validate()...)
	errs = append(errs, o.Pipeline.Validate()...)
	if o.Pipeline.StoreBackend == docqaopts.StoreMilvus {
		errs = append(errs, o.Milvus.Validate()...)
	}

	return utilerrors.NewAggregate(errs)
}

// Config 转换为服务配置。
func (o *ServerOptions) Config() *docqa.Config {
	return &docqa.Config{
		HTTP:      o.HTTP,
		Log:       o.Log,
		Chat:      o.Chat,
		Embedding: o.Embedding,
		Milvus:    o.Milvus,
		Cache:     o.Cache,
		Pipeline:  o.Pipeline,
	}
}
