package sandbox

import (
	"go.trai.ch/sift/internal/core/domain"
)

// envScript replaces the host globals a module may touch while it is
// evaluated with deterministic stand-ins.
const envScript = `(function (g) {
  var RealDate = g.Date;
  function FixedDate() {
    if (!(this instanceof FixedDate)) {
      return new RealDate(0).toString();
    }
    if (arguments.length === 0) {
      return new RealDate(0);
    }
    var args = [null];
    for (var i = 0; i < arguments.length; i++) args.push(arguments[i]);
    return new (Function.prototype.bind.apply(RealDate, args))();
  }
  FixedDate.prototype = RealDate.prototype;
  FixedDate.now = function () { return 0; };
  FixedDate.parse = RealDate.parse;
  FixedDate.UTC = RealDate.UTC;
  g.Date = FixedDate;

  Math.random = function () { return 0.5; };

  var noop = function () {};
  g.console = { log: noop, info: noop, warn: noop, error: noop, debug: noop, trace: noop };
  g.setTimeout = function () { return 0; };
  g.clearTimeout = noop;
  g.setInterval = function () { return 0; };
  g.clearInterval = noop;
  g.queueMicrotask = noop;

  g.process = { env: { NODE_ENV: "production" }, platform: "browser", browser: true };
  g.window = g;
  g.self = g;
  g.global = g;
  g.document = {
    createElement: function () { return { style: {}, setAttribute: noop, appendChild: noop }; },
    querySelector: function () { return null; },
    head: { appendChild: noop },
    body: { appendChild: noop }
  };
  g.navigator = { userAgent: "" };
  g.location = { href: "", pathname: "/", search: "", hash: "" };
})(globalThis);
`

// install prepares the runtime for module evaluation.
func (h *Host) install(globals map[string]any) error {
	if _, err := h.rt.RunScript("sift:env", envScript); err != nil {
		return domain.Because(domain.ErrEvaluation, err)
	}
	for name, v := range globals {
		if err := h.rt.Set(name, h.toJS(domain.ValueOf(v))); err != nil {
			return domain.Fail(domain.Because(domain.ErrEvaluation, err), "global", name)
		}
	}
	return nil
}
