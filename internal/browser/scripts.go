package browser

// Scripts are function definitions evaluated in the page.

// scanScript measures every element carrying attr, skipping the portal.
// Top is document relative.
const scanScript = `(attr, portalID) => {
	const out = [];
	document.querySelectorAll('[' + attr + ']').forEach((el, i) => {
		if (el.closest('#' + portalID)) return;
		const r = el.getBoundingClientRect();
		out.push({
			label: el.getAttribute(attr) || el.id || ('section-' + (i + 1)),
			top: r.top + window.scrollY,
			height: r.height,
			width: r.width,
		});
	});
	return out;
}`

// mirrorScript replaces the page's portal root with markup, or removes it
// when markup is empty.
const mirrorScript = `(markup, portalID) => {
	const old = document.getElementById(portalID);
	if (!markup) {
		if (old) old.remove();
		return;
	}
	const tpl = document.createElement('template');
	tpl.innerHTML = markup;
	const next = tpl.content.firstElementChild;
	if (old) {
		old.replaceWith(next);
	} else {
		document.body.appendChild(next);
	}
}`

// eventScript forwards scroll and resize, one call per animation frame.
const eventScript = `() => {
	if (window.__studioEventsInstalled) return;
	window.__studioEventsInstalled = true;
	const pending = new Set();
	const send = (type) => {
		if (pending.has(type)) return;
		pending.add(type);
		requestAnimationFrame(() => {
			pending.delete(type);
			if (window.__studioEvent) window.__studioEvent(type);
		});
	};
	window.addEventListener('scroll', () => send('scroll'), { passive: true });
	window.addEventListener('resize', () => send('resize'));
}`

// editScript lets the operator drag overlay layers, or resize them with
// Alt held, and reports the result on release.
const editScript = `() => {
	if (window.__studioEditInstalled) return;
	window.__studioEditInstalled = true;
	let drag = null;
	document.addEventListener('pointerdown', (e) => {
		const layer = e.target.closest && e.target.closest('#editor-portal-root [data-overlay-id]');
		if (!layer) return;
		const r = layer.getBoundingClientRect();
		drag = { layer, x: e.clientX, y: e.clientY, left: r.left, top: r.top, width: r.width, height: r.height, resize: e.altKey };
		e.preventDefault();
	}, true);
	document.addEventListener('pointermove', (e) => {
		if (!drag) return;
		const dx = e.clientX - drag.x, dy = e.clientY - drag.y;
		if (drag.resize) {
			drag.layer.style.width = Math.max(8, drag.width + dx) + 'px';
			drag.layer.style.height = Math.max(8, drag.height + dy) + 'px';
		} else {
			drag.layer.style.left = (drag.left + dx) + 'px';
			drag.layer.style.top = (drag.top + dy) + 'px';
		}
	}, true);
	document.addEventListener('pointerup', () => {
		if (!drag) return;
		const r = drag.layer.getBoundingClientRect();
		const edit = {
			id: drag.layer.getAttribute('data-overlay-id'),
			left: Math.round(r.left),
			top: Math.round(r.top),
			width: Math.round(r.width),
			height: Math.round(r.height),
		};
		drag = null;
		if (window.__studioEdit) window.__studioEdit(JSON.stringify(edit));
	}, true);
}`
