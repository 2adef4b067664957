package domsurface

const backgroundJS = `function() { return window.getComputedStyle(this).backgroundColor || ""; }`

const clickJS = `function() { this.click(); }`

const canvasClickJS = `function(x, y, types) {
	const rect = this.getBoundingClientRect();
	const init = {
		bubbles: true,
		cancelable: true,
		clientX: rect.left + x,
		clientY: rect.top + y,
		button: 0,
	};
	for (const type of types) {
		this.dispatchEvent(new MouseEvent(type, init));
	}
}`
