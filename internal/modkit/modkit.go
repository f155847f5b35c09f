package modkit

import "apiloader/internal/modkit/module"

// Module is the common surface for modules that expose ports
type Module = module.Module

// Builder constructs a Module from shared deps
type Builder func(Deps) (Module, error)
